package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "branchhub-session"

	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userName   = "user_name"
	userLogin  = "user_login"
	userRole   = "user_role"
	userBranch = "user_branch"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID         string
	Name       string
	LoginID    string
	Role       rbac.Role
	BranchID   string
	BranchName string
}

// PrincipalRole implements rbac.Principal.
func (u *SessionUser) PrincipalRole() rbac.Role {
	if u == nil {
		return ""
	}
	return u.Role
}

// UserFetcher loads fresh user data for a user ID. It returns nil when the
// user is gone, disabled, or cannot be read.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// TokenVerifier turns a bearer token into the user ID it names.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	accessKey      ctxKey = "access"
)

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// Access is the gate and unknown-role policy a request is checked against.
type Access struct {
	Gate            rbac.Gate
	UnknownRequired rbac.UnknownRequiredPolicy
}

// Authorize checks required against the policy, then asks the gate about p.
// A required role the policy rejects returns rbac.ErrUnknownRequiredRole and
// a denied decision.
func (a Access) Authorize(p rbac.Principal, required rbac.Role) (rbac.Decision, error) {
	if err := rbac.CheckRequired(a.Gate.Hierarchy(), required, a.UnknownRequired); err != nil {
		return rbac.DeniedInsufficientRole, err
	}
	return a.Gate.Authorize(p, required), nil
}

// AccessFor returns the Access bound to r by LoadSessionUser. Requests that
// never passed through a SessionManager get the default gate with unknown
// required roles rejected.
func AccessFor(r *http.Request) Access {
	if a, ok := r.Context().Value(accessKey).(Access); ok {
		return a
	}
	return Access{Gate: rbac.DefaultGate(), UnknownRequired: rbac.RejectUnknownRequired}
}

// Authorize checks the request's principal against AccessFor(r). Handler-level
// checks use this so they agree with SessionManager.RequireRole.
func Authorize(r *http.Request, required rbac.Role) (rbac.Decision, error) {
	return AccessFor(r).Authorize(principal(r), required)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and the access gate. It resolves the
// principal for each request and enforces route role requirements.
type SessionManager struct {
	store           *sessions.CookieStore
	name            string
	fetcher         UserFetcher
	tokens          TokenVerifier
	gate            rbac.Gate
	unknownRequired rbac.UnknownRequiredPolicy
	log             *zap.Logger
}

// NewSessionManager builds the cookie store.
//
// Cookies are always SameSite=Lax; in production (secure=true) they are also
// Secure. In local dev over http://localhost, use secure=false so cookies are
// accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{
		store: store,
		name:  name,
		gate:  rbac.DefaultGate(),
		log:   logger,
	}, nil
}

// GenerateSessionKey returns a random hex key suitable for dev runs where no
// session_key is configured. Sessions do not survive a restart with it.
func GenerateSessionKey() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// Gate returns the access gate used by RequireRole.
func (sm *SessionManager) Gate() rbac.Gate { return sm.gate }

// SetGate replaces the access gate. Call before building routes.
func (sm *SessionManager) SetGate(g rbac.Gate) { sm.gate = g }

// Access returns the manager's gate and unknown-role policy.
func (sm *SessionManager) Access() Access {
	return Access{Gate: sm.gate, UnknownRequired: sm.unknownRequired}
}

// Authorize checks the request's principal with the manager's gate and policy.
func (sm *SessionManager) Authorize(r *http.Request, required rbac.Role) (rbac.Decision, error) {
	return sm.Access().Authorize(principal(r), required)
}

// WithTestUser binds the manager's Access and u to r. Tests only.
func (sm *SessionManager) WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(sm.withAccess(r), u)
}

// SetUserFetcher makes LoadSessionUser re-read the user on every request so
// role changes and disabled accounts take effect immediately.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SetTokenVerifier enables bearer-token principals.
func (sm *SessionManager) SetTokenVerifier(v TokenVerifier) { sm.tokens = v }

// SetUnknownRequiredPolicy decides what RequireRole does with a role outside
// the gate's hierarchy. Call before building routes.
func (sm *SessionManager) SetUnknownRequiredPolicy(p rbac.UnknownRequiredPolicy) {
	sm.unknownRequired = p
}

// GetSession returns the named session for r. A decode failure still yields
// a usable (new) session alongside the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn records u in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Debug("discarding undecodable session on sign-in", zap.Error(err))
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userLogin] = u.LoginID
	sess.Values[userRole] = u.Role.String()
	sess.Values[userBranch] = u.BranchID
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session decode failed during sign-out", zap.Error(err))
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser binds the manager's Access to the request and injects the
// user into context when the request carries a valid bearer token or session
// cookie. A bearer header, when present, wins over the cookie; an invalid one
// leaves the request anonymous.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = sm.withAccess(r)
		if raw, ok := bearerToken(r); ok {
			if u := sm.userFromToken(r.Context(), raw); u != nil {
				r = withUser(r, u)
			}
			next.ServeHTTP(w, r)
			return
		}

		if u := sm.userFromSession(r); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) userFromToken(ctx context.Context, raw string) *SessionUser {
	if sm.tokens == nil || sm.fetcher == nil {
		return nil
	}
	userID, err := sm.tokens.Verify(raw)
	if err != nil {
		sm.log.Debug("bearer token rejected", zap.Error(err))
		return nil
	}
	return sm.fetcher.FetchUser(ctx, userID)
}

func (sm *SessionManager) userFromSession(r *http.Request) *SessionUser {
	sess, err := sm.GetSession(r)
	if err != nil {
		return nil
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	id := getString(sess, userIDKey)
	if id == "" {
		return nil
	}
	if sm.fetcher != nil {
		return sm.fetcher.FetchUser(r.Context(), id)
	}
	return &SessionUser{
		ID:       id,
		Name:     getString(sess, userName),
		LoginID:  getString(sess, userLogin),
		Role:     rbac.Parse(getString(sess, userRole)),
		BranchID: getString(sess, userBranch),
	}
}

// principal returns the request's principal, or a nil interface when there is
// none. Never returns a typed nil.
func principal(r *http.Request) rbac.Principal {
	if u, ok := CurrentUser(r); ok {
		return u
	}
	return nil
}

// RejectCrossOrigin refuses state-changing requests that ride on the session
// cookie from another origin. Safe methods and bearer-token requests pass;
// the browser never attaches a bearer header on its own.
func (sm *SessionManager) RejectCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := bearerToken(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := r.Cookie(sm.name); err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if crossOrigin(r) {
			sm.log.Warn("cross-origin cookie request refused",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("origin", r.Header.Get("Origin")))
			apierr.Write(w, http.StatusForbidden, "Cross-origin request refused", apierr.CodeCrossOrigin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sm.gate.IsAuthenticated(principal(r)) {
			apierr.Unauthenticated(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole gates the wrapped handler on the caller holding at least
// required. Absent principal → 401, insufficient rank → 403.
//
// A required role outside the gate's hierarchy is checked once, here, against
// the manager's UnknownRequiredPolicy. Under the reject policy the route
// answers 500 for everyone.
func (sm *SessionManager) RequireRole(required rbac.Role) func(http.Handler) http.Handler {
	if err := rbac.CheckRequired(sm.gate.Hierarchy(), required, sm.unknownRequired); err != nil {
		sm.log.Error("route registered with unknown required role; refusing all requests",
			zap.String("required_role", required.String()),
			zap.Error(err))
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				apierr.MisconfiguredRoute(w)
			})
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principal(r)
			d := sm.gate.Authorize(p, required)
			if apierr.Decision(w, d) {
				fields := []zap.Field{
					zap.String("decision", d.String()),
					zap.String("required_role", required.String()),
					zap.String("path", r.URL.Path),
				}
				if p != nil {
					fields = append(fields, zap.String("role", p.PrincipalRole().String()))
				}
				sm.log.Info("access denied", fields...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func (sm *SessionManager) withAccess(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), accessKey, sm.Access()))
}

// crossOrigin reports whether r was sent from a page on another origin. It
// trusts Sec-Fetch-Site when the browser sends it and otherwise compares the
// Origin host with the request host. No Origin at all is not cross-origin.
func crossOrigin(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "cross-site", "same-site":
		return true
	case "same-origin", "none":
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
