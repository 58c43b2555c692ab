package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"userhub.org/internal/audit"
	"userhub.org/internal/permission"
	"userhub.org/internal/user"
)

type registerRequest struct {
	Email           string           `json:"email"`
	Password        string           `json:"password"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	PermissionFlags permission.Flags `json:"permissionFlags"`
}

// updateRequest enumerates the fields the general profile path accepts.
// PermissionFlags is listed only so a request carrying it can be
// refused with a precise message instead of a generic unknown-key error.
type updateRequest struct {
	Password        *string           `json:"password"`
	FirstName       *string           `json:"firstName"`
	LastName        *string           `json:"lastName"`
	PermissionFlags *permission.Flags `json:"permissionFlags"`
}

// handleUsersCollection serves /users: registration and the admin list.
func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handleRegister(w, r)
	case http.MethodGet:
		a.handleListUsers(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := a.users.Register(r.Context(), user.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Flags:     req.PermissionFlags,
	})
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user.registered", map[string]any{"user_id": id})
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 0)
	page := queryInt(r, "page", 0)
	views, err := a.users.List(r.Context(), p.Flags, limit, page)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleUserResource serves /users/{id} and
// /users/{id}/permissionFlags/{value}.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	if rest == "" || strings.HasPrefix(rest, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		a.handleUserByID(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "permissionFlags":
		a.handleSetFlags(w, r, parts[0], parts[2])
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		view, err := a.users.Get(r.Context(), id)
		if err != nil {
			writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case http.MethodPut:
		var req updateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid JSON body")
			return
		}
		err := a.users.Update(r.Context(), id, user.Update{
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Flags:     req.PermissionFlags,
		})
		if err != nil {
			writeUserError(w, r, err)
			return
		}
		audit.LogEvent(r.Context(), "user.updated", map[string]any{"user_id": id})
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := a.users.Remove(r.Context(), id); err != nil {
			writeUserError(w, r, err)
			return
		}
		audit.LogEvent(r.Context(), "user.removed", map[string]any{"user_id": id})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleSetFlags(w http.ResponseWriter, r *http.Request, id, rawFlags string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	value, err := strconv.ParseUint(rawFlags, 10, 32)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "permission flags must be a non-negative integer")
		return
	}
	if err := a.users.SetFlags(r.Context(), id, permission.Flags(value), p.Flags); err != nil {
		writeUserError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user.flags_changed", map[string]any{
		"user_id": id,
		"flags":   value,
	})
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
