package api

import (
	"github.com/bizdesk/backoffice/internal/auth"
	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/enforce"
	"github.com/bizdesk/backoffice/internal/http/api/handlers"
	"github.com/bizdesk/backoffice/internal/perm"
	"github.com/bizdesk/backoffice/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Business controller names. Each one maps to a program code by dropping
// the shared prefix.
const (
	ControllerCommonCodes = "apiSYSCOMMI"
	ControllerAccounts    = "apiSYSACNT"
)

// RegisterRoutes wires every endpoint onto the engine. Authentication
// endpoints sit outside the enforcement filter; business controllers run
// behind it.
func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	jwtCfg config.JWTConfig,
	authenticator *auth.Authenticator,
	guard *auth.PasswordGuard,
	resolver *perm.Resolver,
	enforcer *enforce.Enforcer,
	limiter *ratelimit.Manager,
) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authHandler := handlers.NewAuthHandler(db, jwtCfg, authenticator, guard, limiter)
	authGroup := r.Group("/api/SYSAUTH")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/password", authHandler.ChangePassword)

	menuHandler := handlers.NewMenuHandler(db, jwtCfg, resolver)
	menuGroup := r.Group("/api/SYSMENU")
	menuGroup.GET("/tree", menuHandler.Tree)

	commonCodeHandler := handlers.NewCommonCodeHandler(db)
	commonCodeGroup := r.Group("/api/SYSCOMMI")
	commonCodeGroup.Use(enforce.Middleware(enforcer, ControllerCommonCodes))
	commonCodeGroup.POST("/search", commonCodeHandler.Search)
	commonCodeGroup.POST("/insert", commonCodeHandler.Insert)
	commonCodeGroup.POST("/edit", commonCodeHandler.Edit)
	commonCodeGroup.POST("/delete", commonCodeHandler.Delete)

	accountHandler := handlers.NewAccountHandler(db, guard)
	accountGroup := r.Group("/api/SYSACNT")
	accountGroup.Use(enforce.Middleware(enforcer, ControllerAccounts))
	accountGroup.POST("/insert", accountHandler.Create)
}
