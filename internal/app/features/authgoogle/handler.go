// Package authgoogle implements login via Google OAuth2. The callback
// reconciles the Google identity against stored users: first logins
// create a user, returning logins refresh the stored account, and any
// failure along the way collapses to a single 401 so nothing about
// accounts leaks to the caller.
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LunarMoonDev/user-location/internal/app/features/errors"
	"github.com/LunarMoonDev/user-location/internal/app/store/oauthstate"
	userstore "github.com/LunarMoonDev/user-location/internal/app/store/users"
	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"github.com/LunarMoonDev/user-location/internal/app/system/normalize"
	"github.com/LunarMoonDev/user-location/internal/app/system/timeouts"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateTTL        = 10 * time.Minute
	userinfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
	callbackPattern = "%s/v1/auth/google/callback"
)

type Handler struct {
	Log      *zap.Logger
	Sessions *auth.SessionManager
	Users    *userstore.Store
	States   *oauthstate.Store

	cfg *oauth2.Config

	// userInfoURL is swappable in tests.
	userInfoURL string
}

func New(log *zap.Logger, sessions *auth.SessionManager, users *userstore.Store, states *oauthstate.Store, clientID, clientSecret, baseURL string) *Handler {
	return &Handler{
		Log:      log,
		Sessions: sessions,
		Users:    users,
		States:   states,
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  fmt.Sprintf(callbackPattern, baseURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userinfoURL,
	}
}

// OAuthConfig exposes the oauth2 config so the token-refresh
// middleware can share the same client credentials.
func (h *Handler) OAuthConfig() *oauth2.Config { return h.cfg }

// ServeLogin starts the OAuth round trip: mint a one-time state nonce,
// persist it, and bounce the browser to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		h.Log.Error("generate oauth state failed", zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.States.Save(ctx, state, time.Now().Add(stateTTL)); err != nil {
		h.Log.Error("persist oauth state failed", zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}

	// AccessTypeOffline asks Google for a refresh token so sessions can
	// outlive the first access token.
	url := h.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// ServeCallback completes the round trip. Every failure path answers
// 401 with the generic message; the distinguishing detail only goes to
// the log.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if msg := r.URL.Query().Get("error"); msg != "" {
		h.Log.Warn("google returned an oauth error", zap.String("error", msg))
		auth.WriteUnauthenticated(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	state := r.URL.Query().Get("state")
	ok, err := h.States.Validate(ctx, state)
	if err != nil || !ok {
		h.Log.Warn("oauth state rejected", zap.Bool("found", ok), zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}

	token, err := h.cfg.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.Log.Warn("code exchange failed", zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Warn("fetch google userinfo failed", zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}
	if info.ID == "" || info.Email == "" {
		h.Log.Warn("google userinfo incomplete", zap.String("subject", info.ID))
		auth.WriteUnauthenticated(w)
		return
	}

	acct := models.Account{
		Provider:     "google",
		Subject:      info.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpireDate:   token.Expiry.Unix(),
	}

	user, err := h.reconcile(ctx, info, acct)
	if err != nil {
		h.Log.Warn("login reconcile failed", zap.String("subject", info.ID), zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}

	if err := h.Sessions.SignIn(w, r, user.ID.Hex()); err != nil {
		h.Log.Error("session sign-in failed", zap.Error(err))
		auth.WriteUnauthenticated(w)
		return
	}

	errors.WriteJSON(w, http.StatusOK, map[string]any{
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
		"role":      user.Role,
	})
}

// ServeLogout drops the session cookie.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Warn("sign out failed", zap.Error(err))
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{"signedOut": true})
}

func (h *Handler) reconcile(ctx context.Context, info googleUserInfo, acct models.Account) (*models.User, error) {
	existing, err := h.Users.GetByProviderSubject(ctx, acct.Provider, acct.Subject)
	if err != nil {
		return nil, err
	}

	switch Decide(existing, acct) {
	case ActionCreate:
		created, err := h.Users.Create(ctx, models.User{
			FirstName: normalize.Name(info.GivenName),
			LastName:  normalize.Name(info.FamilyName),
			Email:     info.Email,
			Role:      "user",
			Account:   &acct,
		}, nil)
		if err != nil {
			return nil, err
		}
		return &created, nil

	case ActionRefresh:
		if err := h.Users.ReplaceAccount(ctx, acct.Provider, acct.Subject, existing.Email, acct); err != nil {
			return nil, err
		}
		return h.Users.GetByID(ctx, existing.ID)

	default:
		return existing, nil
	}
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return googleUserInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo endpoint answered %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	return info, nil
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
