package auth

import "net/http"

// Routes mounts the auth route group. Register, login, logout and refresh
// bypass the gate; everything else goes through it, and admin routes
// additionally through the role guard.
func (h *Handler) Routes(mux *http.ServeMux, gate *Gate, limiter *LoginRateLimiter) {
	login := http.Handler(http.HandlerFunc(h.Login))
	if limiter != nil {
		login = limiter.Middleware(login)
	}

	admin := func(fn http.HandlerFunc) http.Handler {
		return gate.Require(RequireAdmin(fn))
	}

	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.Handle("POST /api/v1/auth/login", login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/refresh", h.Refresh)

	mux.Handle("GET /api/v1/auth/users", admin(h.ListUsers))
	mux.Handle("GET /api/v1/auth/user/{id}", admin(h.GetUser))
	mux.Handle("PUT /api/v1/auth/user/{id}", gate.Require(http.HandlerFunc(h.UpdateSelf)))
	mux.Handle("DELETE /api/v1/auth/user/{id}", admin(h.DeleteUser))
	mux.Handle("PATCH /api/v1/auth/block/{id}", admin(h.BlockUser))
	mux.Handle("PATCH /api/v1/auth/unblock/{id}", admin(h.UnblockUser))
}
