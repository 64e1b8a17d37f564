package logout

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout handles POST /logout. The cookie is always expired; bearer
// tokens stay valid until they expire on their own.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: expire session", zap.Error(err))
	}
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("logout", zap.String("user_id", u.ID))
	}
	w.WriteHeader(http.StatusNoContent)
}
