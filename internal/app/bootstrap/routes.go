// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/LunarMoonDev/user-location/internal/app/features/authgoogle"
	healthfeature "github.com/LunarMoonDev/user-location/internal/app/features/health"
	locationsfeature "github.com/LunarMoonDev/user-location/internal/app/features/locations"
	userinfofeature "github.com/LunarMoonDev/user-location/internal/app/features/userinfo"
	usersfeature "github.com/LunarMoonDev/user-location/internal/app/features/users"
	"github.com/LunarMoonDev/user-location/internal/app/store/oauthstate"
	userstore "github.com/LunarMoonDev/user-location/internal/app/store/users"
	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"github.com/LunarMoonDev/user-location/internal/app/system/refresh"
	"github.com/LunarMoonDev/user-location/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. Mounting order matters: health
// and the login flow sit outside the session gates, the /v1 APIs sit
// behind signed-in + fresh-token + rights middleware.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Sessions resolve to fresh user data on every request so role
	// changes and soft-deletions take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	users := userstore.New(deps.MongoDatabase, logger)
	states := oauthstate.New(deps.MongoDatabase)

	googleHandler := authgooglefeature.New(logger, sessionMgr, users, states,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL)

	// The refresh middleware shares the login flow's OAuth client so
	// refreshed tokens come from the same credentials.
	fresh := refresh.New(users, &refresh.GoogleExchanger{Config: googleHandler.OAuthConfig()}, logger)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(sessionMgr.LoadSessionUser)

	healthfeature.Routes(r, deps.MongoClient, logger)
	userinfofeature.Routes(r)
	authgooglefeature.Routes(r, googleHandler)

	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, logger)
	usersfeature.Routes(r, usersHandler, sessionMgr.RequireSignedIn, fresh.RequireFresh)

	locationsHandler := locationsfeature.NewHandler(deps.MongoDatabase, logger)
	locationsfeature.Routes(r, locationsHandler, sessionMgr.RequireSignedIn, fresh.RequireFresh)

	return r, nil
}
