package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bizdesk/backoffice/internal/auth"
	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/db"
	"github.com/bizdesk/backoffice/internal/enforce"
	"github.com/bizdesk/backoffice/internal/http/api"
	"github.com/bizdesk/backoffice/internal/notify"
	"github.com/bizdesk/backoffice/internal/perm"
	"github.com/bizdesk/backoffice/internal/ratelimit"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// shutdownGrace bounds how long in-flight requests may run after a stop
// signal.
const shutdownGrace = 10 * time.Second

// ConfigExists reports whether the config file is present.
func ConfigExists(configPath string) bool {
	info, errStat := os.Stat(configPath)
	return errStat == nil && !info.IsDir()
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the backoffice API server with database-backed
// components and blocks until the context is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	if jwtCfg.Secret == "" {
		return fmt.Errorf("app: missing jwt secret (set `jwt.secret` in config or env %s)", config.EnvJWTSecret)
	}
	authCfg, _ := config.LoadAuthConfig(configPath)
	rateCfg, _ := config.LoadRateLimitConfig(configPath)

	notifier := notify.NewAdminNotifier()
	authenticator := auth.NewAuthenticator(conn, authCfg, notifier)
	guard := auth.NewPasswordGuard(conn, authCfg)
	resolver := perm.NewResolver(conn)
	enforcer := enforce.NewEnforcer(resolver, jwtCfg, authCfg.StrictMenuResolution)
	limiter := ratelimit.NewManager(rateCfg, time.Now, nil)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, jwtCfg, authenticator, guard, resolver, enforcer, limiter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s with config=%s", server.Addr, cfg.ConfigPath)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("server shutdown")
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}
