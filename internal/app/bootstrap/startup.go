// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/LunarMoonDev/user-location/internal/app/store/oauthstate"
	"github.com/LunarMoonDev/user-location/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema
// setup, before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Reset()

	// The TTL index reaps these continuously; one sweep at boot clears
	// anything accumulated while the service was down.
	n, err := oauthstate.New(deps.MongoDatabase).CleanupExpired(ctx)
	if err != nil {
		logger.Warn("oauth state sweep failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("swept expired oauth states", zap.Int64("removed", n))
	}

	return nil
}
