package handlers

import (
	"net/http"
	"strings"

	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/menu"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/perm"
	"github.com/bizdesk/backoffice/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MenuHandler serves the navigation tree for the calling account.
type MenuHandler struct {
	db       *gorm.DB
	jwtCfg   config.JWTConfig
	resolver *perm.Resolver
}

// NewMenuHandler constructs a MenuHandler.
func NewMenuHandler(db *gorm.DB, jwtCfg config.JWTConfig, resolver *perm.Resolver) *MenuHandler {
	return &MenuHandler{db: db, jwtCfg: jwtCfg, resolver: resolver}
}

// Tree returns the menu forest, filtered to granted items for
// non-superuser accounts.
func (h *MenuHandler) Tree(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" || token == strings.TrimSpace(authHeader) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	identity, errParse := security.ParseSessionToken(h.jwtCfg.Secret, token)
	if errParse != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}

	var items []models.MenuItem
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("parent_id ASC, sort_order ASC, id ASC").
		Find(&items).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load menu failed"})
		return
	}

	var visible map[uint64]struct{}
	if !identity.SuperUser {
		granted, errGrants := h.resolver.GrantedMenuIDs(c.Request.Context(), identity.PNO)
		if errGrants != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load menu failed"})
			return
		}
		visible = menu.VisibleMenuIDs(items, granted)
	}

	c.JSON(http.StatusOK, gin.H{"menu": menu.BuildTree(items, visible)})
}
