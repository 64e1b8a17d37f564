// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/branchhub/internal/app/features/errors"
	"github.com/dalemusser/branchhub/internal/app/features/shared/views"
	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/apitoken"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Fetcher    auth.UserFetcher
	SessionMgr *auth.SessionManager
	Tokens     *apitoken.Issuer // nil disables bearer tokens
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	tokens *apitoken.Issuer,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Fetcher:    userstore.NewFetcher(db, logger),
		SessionMgr: sessionMgr,
		Tokens:     tokens,
		Limiter:    ratelimit.NewLoginLimiter(),
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	User      views.User `json:"user"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: decode body failed", err, "Invalid JSON body.")
		return
	}

	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" || req.Password == "" {
		apierr.BadRequest(w, "login_id and password are required.")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, loginID); !ok {
			h.Log.Warn("login rate limited",
				zap.String("login_id", loginID),
				zap.String("ip", ratelimit.ClientIP(r)))
			w.Header().Set("Retry-After", "60")
			apierr.Write(w, http.StatusTooManyRequests, reason, apierr.CodeRateLimited)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, loginID, req.Password)
	if errors.Is(err, userstore.ErrInvalidCredentials) {
		h.Log.Info("login failed", zap.String("login_id", loginID))
		apierr.Write(w, http.StatusUnauthorized, "Invalid login ID or password", apierr.CodeInvalidCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: authenticate failed", err)
		return
	}

	su := h.Fetcher.FetchUser(ctx, u.ID.Hex())
	if su == nil {
		// Disabled or removed between the password check and now.
		apierr.Write(w, http.StatusUnauthorized, "Invalid login ID or password", apierr.CodeInvalidCredentials)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "login: save session failed", err)
		return
	}

	resp := loginResponse{User: views.FromSession(su)}
	if h.Tokens != nil {
		tok, exp, err := h.Tokens.Issue(su.ID, su.Role)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "login: issue token failed", err)
			return
		}
		resp.Token = tok
		resp.ExpiresAt = &exp
	}

	if h.Limiter != nil {
		h.Limiter.ResetLogin(loginID)
	}
	h.Log.Info("login succeeded",
		zap.String("user_id", su.ID),
		zap.String("role", su.Role.String()))

	views.JSON(w, http.StatusOK, resp)
}
