package maintenance

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"store-api/internal/respond"
)

type CleanupHandler struct {
	sweeper    *Sweeper
	cronSecret string
}

// NewCleanupHandler builds the externally triggered sweep. With an empty
// secret the route answers 404 so it cannot be probed.
func NewCleanupHandler(sweeper *Sweeper, cronSecret string) *CleanupHandler {
	return &CleanupHandler{sweeper: sweeper, cronSecret: strings.TrimSpace(cronSecret)}
}

func (h *CleanupHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /internal/maintenance/cleanup", h.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", h.Handle)
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		respond.NotFound(w, r)
		return
	}

	if !h.authorized(r) {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.sweeper.Run(r.Context())
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	respond.JSON(w, http.StatusOK, "cleanup completed", map[string]any{"result": result})
}

func (h *CleanupHandler) authorized(r *http.Request) bool {
	parts := strings.SplitN(strings.TrimSpace(r.Header.Get("Authorization")), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(h.cronSecret)) == 1
}
