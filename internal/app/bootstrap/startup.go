// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/tasks"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// background tracks what Startup and BuildHandler start so Shutdown can
// stop it.
var background struct {
	mu    sync.Mutex
	stops []func()
}

func onShutdown(stop func()) {
	background.mu.Lock()
	background.stops = append(background.stops, stop)
	background.mu.Unlock()
}

func stopBackground(logger *zap.Logger) {
	background.mu.Lock()
	stops := background.stops
	background.stops = nil
	background.mu.Unlock()

	for i := len(stops) - 1; i >= 0; i-- {
		stops[i]()
	}
	if len(stops) > 0 {
		logger.Info("background work stopped", zap.Int("count", len(stops)))
	}
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// ClubHub applies timeout settings, starts the periodic task runner and
// bootstraps the administrator account when admin_email is set.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{ChatAppend: appCfg.ChatAppendTimeout})

	jobs := []tasks.Job{
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
	}
	if appCfg.AuditRetention > 0 {
		jobs = append(jobs, tasks.AuditRetentionJob(audit.New(deps.MongoDatabase), appCfg.AuditRetention, logger))
	}
	runner := tasks.NewRunner(logger, jobs...)
	// The runner outlives Startup's ctx; Shutdown stops it.
	runner.Start(context.Background())
	onShutdown(runner.Stop)

	if appCfg.AdminEmail != "" {
		auditLog := newAuditLogger(deps.MongoDatabase, appCfg, logger)
		if err := ensureAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, auditLog, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin promotes or creates the bootstrap administrator.
func ensureAdmin(ctx context.Context, db *mongo.Database, email string, auditLog *auditlog.Logger, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, created, err := userstore.New(db).EnsureAdmin(ctx, email)
	if err != nil {
		logger.Error("admin bootstrap failed", zap.String("email", email), zap.Error(err))
		return err
	}
	auditLog.AdminBootstrapped(ctx, u.ID, u.Email, created)
	logger.Info("admin ensured",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email),
		zap.Bool("created", created))
	return nil
}

func newAuditLogger(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
		Club:  appCfg.AuditLogClub,
	})
}
