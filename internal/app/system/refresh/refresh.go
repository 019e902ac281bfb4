// internal/app/system/refresh/refresh.go
package refresh

import (
	"context"
	"net/http"
	"time"

	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"github.com/LunarMoonDev/user-location/internal/app/system/timeouts"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// RefreshSkew is how far ahead of token expiry a refresh is attempted.
// A token within this window of expiring is treated as stale so a
// request never goes out with a token about to die mid-flight.
const RefreshSkew = 300 * time.Second

// AccountStore is the slice of the user store the middleware needs.
type AccountStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateTokens(ctx context.Context, provider, subject, email, accessToken string, expireDate int64) error
}

// TokenExchanger swaps a refresh token for a new access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, refreshToken string) (accessToken string, expireDate int64, err error)
}

// GoogleExchanger implements TokenExchanger against Google's token
// endpoint via the oauth2 config's token source.
type GoogleExchanger struct {
	Config *oauth2.Config
}

func (g *GoogleExchanger) Exchange(ctx context.Context, refreshToken string) (string, int64, error) {
	src := g.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", 0, err
	}
	return tok.AccessToken, tok.Expiry.Unix(), nil
}

// Middleware keeps OAuth access tokens fresh for signed-in users.
type Middleware struct {
	users     AccountStore
	exchanger TokenExchanger
	log       *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

func New(users AccountStore, exchanger TokenExchanger, log *zap.Logger) *Middleware {
	return &Middleware{
		users:     users,
		exchanger: exchanger,
		log:       log,
		now:       time.Now,
	}
}

// SetNow overrides the clock. Test hook.
func (m *Middleware) SetNow(now func() time.Time) { m.now = now }

func shouldRefresh(expireDate int64, now time.Time) bool {
	return expireDate-now.Unix() <= int64(RefreshSkew/time.Second)
}

// RequireFresh gates a route on a live session whose OAuth token, if
// any, is not stale. Users without an OAuth account (admin-created)
// pass through untouched. Any failure along the way collapses to 401
// with the cause logged, never leaked.
func (m *Middleware) RequireFresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		su, ok := auth.CurrentUser(r)
		if !ok {
			auth.WriteUnauthenticated(w)
			return
		}

		id, err := primitive.ObjectIDFromHex(su.ID)
		if err != nil {
			m.log.Warn("session user id is not an object id", zap.String("user_id", su.ID))
			auth.WriteUnauthenticated(w)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		u, err := m.users.GetByID(ctx, id)
		if err != nil {
			m.log.Warn("load user for token check failed", zap.String("user_id", su.ID), zap.Error(err))
			auth.WriteUnauthenticated(w)
			return
		}

		if u.Account == nil {
			next.ServeHTTP(w, r)
			return
		}

		if !shouldRefresh(u.Account.ExpireDate, m.now()) {
			next.ServeHTTP(w, r)
			return
		}

		accessToken, expireDate, err := m.exchanger.Exchange(ctx, u.Account.RefreshToken)
		if err != nil {
			m.log.Warn("token refresh failed",
				zap.String("user_id", su.ID),
				zap.String("provider", u.Account.Provider),
				zap.Error(err))
			auth.WriteUnauthenticated(w)
			return
		}

		if err := m.users.UpdateTokens(ctx, u.Account.Provider, u.Account.Subject, u.Email, accessToken, expireDate); err != nil {
			m.log.Warn("persist refreshed token failed", zap.String("user_id", su.ID), zap.Error(err))
			auth.WriteUnauthenticated(w)
			return
		}

		m.log.Debug("access token refreshed", zap.String("user_id", su.ID))
		next.ServeHTTP(w, r)
	})
}
