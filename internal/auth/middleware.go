package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/rs/zerolog/log"
)

// CookieName is the name of the signed session cookie.
const CookieName = "smarttools_session"

const cookieTokenKey = "sid"

type contextKey string

const (
	accountKey = contextKey("account")
	sessionKey = contextKey("session")
)

// AccountLookup loads the account behind a session.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, id int64) (models.Account, error)
}

// Authenticator resolves the caller from a bearer token or the session cookie.
type Authenticator struct {
	sessions SessionStore
	accounts AccountLookup
	tokens   *TokenIssuer
	cookies  *sessions.CookieStore
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(store SessionStore, accounts AccountLookup, tokens *TokenIssuer, cookieSecret string, ttl time.Duration, secure bool) *Authenticator {
	cookies := sessions.NewCookieStore([]byte(cookieSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Authenticator{sessions: store, accounts: accounts, tokens: tokens, cookies: cookies}
}

// bearerToken returns the raw JWT from the Authorization header, if any.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// sessionToken extracts the session id from whichever transport the client used.
func (a *Authenticator) sessionToken(r *http.Request) string {
	if raw := bearerToken(r); raw != "" {
		claims, err := a.tokens.Parse(raw)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected bearer token")
			return ""
		}
		return claims.ID
	}

	cookie, err := a.cookies.Get(r, CookieName)
	if err != nil {
		return ""
	}
	token, _ := cookie.Values[cookieTokenKey].(string)
	return token
}

// Middleware attaches the caller's account to the request context when a
// valid session is presented. Anonymous requests pass through untouched.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := a.sessions.Resolve(r.Context(), token)
		if err != nil {
			if !apperror.Is(err, apperror.KindUnauthenticated) {
				httputil.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		account, err := a.accounts.GetAccountByID(r.Context(), sess.AccountID)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, &account)
		ctx = context.WithValue(ctx, sessionKey, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountFromContext returns the authenticated account, or nil.
func AccountFromContext(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountKey).(*models.Account)
	return account
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccountFromContext(r.Context()) == nil {
			httputil.WriteError(w, r, ErrNoSession)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFromContext(r.Context())
		if account == nil {
			httputil.WriteError(w, r, ErrNoSession)
			return
		}
		if !account.IsAdmin {
			httputil.WriteError(w, r, apperror.Forbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login starts a session for the account, sets the session cookie and
// returns a bearer token for the same session. A session already attached
// to the request is revoked first.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request, accountID int64) (string, error) {
	if previous, _ := r.Context().Value(sessionKey).(string); previous != "" {
		if err := a.sessions.Delete(r.Context(), previous); err != nil {
			return "", err
		}
	}

	sess, err := a.sessions.Create(r.Context(), accountID)
	if err != nil {
		return "", err
	}

	cookie, _ := a.cookies.Get(r, CookieName)
	cookie.Values[cookieTokenKey] = sess.ID
	if err := cookie.Save(r, w); err != nil {
		return "", apperror.Internal("failed to save session cookie", err)
	}

	token, err := a.tokens.Issue(sess)
	if err != nil {
		return "", apperror.Internal("failed to sign token", err)
	}
	return token, nil
}

// Logout revokes the current session and clears the cookie. It succeeds
// even when the caller had no session.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	token, _ := r.Context().Value(sessionKey).(string)
	if token == "" {
		token = a.sessionToken(r)
	}
	if token != "" {
		if err := a.sessions.Delete(r.Context(), token); err != nil {
			return err
		}
	}

	cookie, _ := a.cookies.Get(r, CookieName)
	delete(cookie.Values, cookieTokenKey)
	cookie.Options.MaxAge = -1
	if err := cookie.Save(r, w); err != nil {
		return apperror.Internal("failed to clear session cookie", err)
	}
	return nil
}
