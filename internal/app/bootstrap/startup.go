// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if appCfg.SuperAdminLogin != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminLogin, appCfg.SuperAdminPassword, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin promotes or creates the configured super_admin user.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, loginID, password string, logger *zap.Logger) error {
	created, err := userstore.New(deps.BranchHubMongoDatabase).EnsureSuperAdmin(ctx, loginID, password)
	if err != nil {
		logger.Error("ensure super_admin failed", zap.String("login_id", loginID), zap.Error(err))
		return fmt.Errorf("ensure super_admin %q: %w", loginID, err)
	}
	if created {
		logger.Info("created super_admin user", zap.String("login_id", loginID))
	} else {
		logger.Info("super_admin user ensured", zap.String("login_id", loginID))
	}
	if password == "" && created {
		logger.Warn("super_admin created without a password; it cannot sign in until one is set",
			zap.String("login_id", loginID))
	}
	return nil
}
