// Package httpapi exposes the user management service over HTTP.
//
// Routes are registered on a plain http.ServeMux; resource paths with
// identifiers are parsed by hand in the handlers. All request and
// response bodies are JSON.
package httpapi

import (
	"net/http"

	"userhub.org/internal/obs"
	"userhub.org/internal/token"
	"userhub.org/internal/user"
)

// ReadyProbe reports whether downstream dependencies (the database,
// typically) are reachable. The readiness endpoint returns 503 until
// the probe succeeds.
type ReadyProbe func() error

// API carries the HTTP surface of the service.
type API struct {
	mux     *http.ServeMux
	users   *user.Service
	tokens  *token.Service
	ready   ReadyProbe
	version string

	maxBodyBytes int64
	rateBurst    int
	ratePerSec   float64
}

// New wires the handlers onto a fresh mux. ready may be nil, in which
// case the readiness endpoint always succeeds.
func New(users *user.Service, tokens *token.Service, ready ReadyProbe, version string) *API {
	a := &API{
		mux:     http.NewServeMux(),
		users:   users,
		tokens:  tokens,
		ready:   ready,
		version: version,

		maxBodyBytes: 1 << 20,
		rateBurst:    50,
		ratePerSec:   25,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/users", a.handleUsersCollection)
	a.mux.HandleFunc("/users/", a.handleUserResource)

	a.mux.HandleFunc("/auth", a.handleLogin)
	a.mux.HandleFunc("/auth/refresh-token", a.handleRefresh)
}

// Handler returns the mux wrapped in the middleware chain. Order
// matters: the request id must exist before anything logs, and
// authentication runs after the body-size and rate limits so that
// unauthenticated floods are shed cheaply.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = obs.Instrument(h)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": a.version})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.ready != nil {
		if err := a.ready(); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
