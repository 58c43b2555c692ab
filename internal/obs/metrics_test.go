package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", "/"},
		{"/metrics", "/metrics"},
		{"/users", "/users"},
		{"/users?limit=10", "/users"},
		{"/users/01ARZ3NDEKTSV4RRFF", "/users/:id"},
		{"/users/abc/permissionFlags/2", "/users/:id/permissionFlags/:flags"},
		{"/users/abc/other", "/users/abc/other"},
		{"/auth", "/auth"},
		{"/auth/refresh-token", "/auth/refresh-token"},
	}
	for _, tc := range cases {
		if got := CanonicalPath(tc.input); got != tc.want {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", tc.input, got, tc.want)
		}
	}
}
