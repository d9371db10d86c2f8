package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bizdesk/backoffice/internal/auth"
	"github.com/bizdesk/backoffice/internal/enforce"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountHandler provisions operator accounts behind the SYSACNT screen.
type AccountHandler struct {
	db    *gorm.DB
	guard *auth.PasswordGuard
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(db *gorm.DB, guard *auth.PasswordGuard) *AccountHandler {
	return &AccountHandler{db: db, guard: guard}
}

// createAccountRequest defines the provisioning body.
type createAccountRequest struct {
	PNO             string     `json:"pno"`
	Name            string     `json:"name"`
	Department      string     `json:"department"`
	InitialPassword string     `json:"initial_password"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
}

// Create provisions a new account with an initial password. Only a
// superuser caller may provision; the initial password lands in history
// slot one so the first real login is detected as a provisioned default.
func (h *AccountHandler) Create(c *gin.Context) {
	identity, okIdentity := callerIdentity(c)
	if !okIdentity {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	if !identity.SuperUser {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var body createAccountRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	pno := auth.NormalizePNO(body.PNO)
	name := strings.TrimSpace(body.Name)
	if pno == "" || name == "" || body.InitialPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing pno, name, or initial_password"})
		return
	}
	if errComposition := h.guard.CheckComposition(body.InitialPassword); errComposition != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errComposition.Error()})
		return
	}
	if strings.EqualFold(body.InitialPassword, pno) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must not match the account id"})
		return
	}

	salt, errSalt := security.NewSalt()
	if errSalt != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		return
	}
	hash, errHash := security.HashPassword(body.InitialPassword, salt)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		return
	}
	now := time.Now().UTC()

	account := models.Account{
		PNO:          pno,
		Name:         name,
		Department:   strings.TrimSpace(body.Department),
		PasswordHash: hash,
		PasswordSalt: salt,
		ValidFrom:    body.ValidFrom,
		ValidUntil:   body.ValidUntil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	history := models.PasswordHistory{
		AccountPNO: pno,
		Hash1:      hash,
		Salt1:      salt,
		UpdatedAt:  now,
	}

	errCreate := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errAccount := tx.Create(&account).Error; errAccount != nil {
			return errAccount
		}
		return tx.Create(&history).Error
	})
	if errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "account exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pno": account.PNO})
}

// callerIdentity reads the identity placed by the enforcement middleware.
func callerIdentity(c *gin.Context) (security.Identity, bool) {
	value, okValue := c.Get(enforce.ContextIdentity)
	if !okValue {
		return security.Identity{}, false
	}
	identity, okCast := value.(security.Identity)
	return identity, okCast
}
