package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bizdesk/backoffice/internal/auth"
	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/ratelimit"
	"github.com/bizdesk/backoffice/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler manages login and password-change endpoints.
type AuthHandler struct {
	db            *gorm.DB
	jwtCfg        config.JWTConfig
	authenticator *auth.Authenticator
	guard         *auth.PasswordGuard
	limiter       *ratelimit.Manager
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, authenticator *auth.Authenticator, guard *auth.PasswordGuard, limiter *ratelimit.Manager) *AuthHandler {
	return &AuthHandler{
		db:            db,
		jwtCfg:        jwtCfg,
		authenticator: authenticator,
		guard:         guard,
		limiter:       limiter,
	}
}

// loginRequest defines the request body for login.
type loginRequest struct {
	PNO      string `json:"pno"`
	Password string `json:"password"`
}

// Login authenticates an account and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	pno := strings.TrimSpace(body.PNO)
	if pno == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing pno or password"})
		return
	}

	if h.limiter != nil {
		result, errLimit := h.limiter.AllowLogin(c.Request.Context(), pno)
		if errLimit == nil && !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
	}

	result, errAuth := h.authenticator.Authenticate(c.Request.Context(), pno, body.Password)
	if errAuth != nil {
		respondAuthError(c, errAuth)
		return
	}

	token, errIssue := security.IssueSessionToken(h.jwtCfg.Secret, result.Identity, h.jwtCfg.Expiry)
	if errIssue != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"identity": gin.H{
			"pno":        result.Identity.PNO,
			"name":       result.Identity.Name,
			"department": result.Identity.Department,
			"super_user": result.Identity.SuperUser,
		},
		"first_login":      result.FirstLogin,
		"password_expired": result.PasswordExpired,
	})
}

// changePasswordRequest defines the request body for a password change.
// Bypass skips the old-password proof and is reserved for superuser callers.
type changePasswordRequest struct {
	PNO         string `json:"pno"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	Bypass      bool   `json:"bypass"`
}

// ChangePassword validates and installs a new password for an account.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	pno := auth.NormalizePNO(body.PNO)
	if pno == "" || body.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing pno or new password"})
		return
	}

	if body.Bypass {
		if !h.isSuperUserCaller(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
	} else {
		var account models.Account
		if errFind := h.db.WithContext(c.Request.Context()).Where("pno = ?", pno).First(&account).Error; errFind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account or password"})
			return
		}
		if !security.VerifyPassword(body.OldPassword, account.PasswordSalt, account.PasswordHash) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account or password"})
			return
		}
	}

	if errChange := h.guard.Change(c.Request.Context(), pno, body.NewPassword); errChange != nil {
		var policyErr *auth.PolicyError
		if errors.As(errChange, &policyErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": policyErr.Error()})
			return
		}
		var authErr *auth.AuthError
		if errors.As(errChange, &authErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// isSuperUserCaller reports whether the bearer token belongs to a superuser.
func (h *AuthHandler) isSuperUserCaller(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" || token == strings.TrimSpace(authHeader) {
		return false
	}
	identity, errParse := security.ParseSessionToken(h.jwtCfg.Secret, token)
	return errParse == nil && identity.SuperUser
}

// respondAuthError maps authentication failures to HTTP responses.
// Lockout failures carry a human-readable reason; credential failures stay
// generic apart from the remaining-attempt hint.
func respondAuthError(c *gin.Context, err error) {
	var authErr *auth.AuthError
	if !errors.As(err, &authErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}
	switch authErr.Kind {
	case auth.AccountLocked, auth.AccountDisabled, auth.AccountDeleted,
		auth.NotYetActive, auth.Expired:
		c.JSON(http.StatusForbidden, gin.H{"error": authErr.Error()})
	default:
		payload := gin.H{"error": authErr.Error()}
		if authErr.AttemptsRemaining >= 0 {
			payload["attempts_remaining"] = authErr.AttemptsRemaining
		}
		c.JSON(http.StatusUnauthorized, payload)
	}
}
