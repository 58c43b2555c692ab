package httpapi

import (
	"net/http"

	"userhub.org/internal/audit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleLogin exchanges credentials for a fresh token pair.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	pair, err := a.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user.logged_in", nil)
	writeJSON(w, http.StatusCreated, pair)
}

// handleRefresh rotates a refresh token into a new pair. The route is
// protected: the caller presents its access token as usual and the
// refresh token rides in the body.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}
	pair, err := a.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user.token_refreshed", nil)
	writeJSON(w, http.StatusCreated, pair)
}
