package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	dbutil "github.com/bizdesk/backoffice/internal/db"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CommonCodeHandler manages the shared code table behind the SYSCOMMI
// screen. Its four actions run behind the enforcement filter.
type CommonCodeHandler struct {
	db *gorm.DB
}

// NewCommonCodeHandler constructs a CommonCodeHandler.
func NewCommonCodeHandler(db *gorm.DB) *CommonCodeHandler {
	return &CommonCodeHandler{db: db}
}

// searchCommonCodeRequest defines the search filter body.
type searchCommonCodeRequest struct {
	GroupCode string `json:"group_code"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

// Search returns common codes matching the filters.
func (h *CommonCodeHandler) Search(c *gin.Context) {
	var body searchCommonCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.CommonCode{})
	if groupCode := strings.TrimSpace(body.GroupCode); groupCode != "" {
		q = q.Where("group_code = ?", groupCode)
	}
	if code := strings.TrimSpace(body.Code); code != "" {
		q = q.Where("code = ?", code)
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+name+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}

	var rows []models.CommonCode
	if errFind := q.Order("group_code ASC, sort_order ASC, code ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"group_code": row.GroupCode,
			"code":       row.Code,
			"name":       row.Name,
			"note":       row.Note,
			"sort_order": row.SortOrder,
			"in_use":     row.InUse,
		})
	}
	c.JSON(http.StatusOK, gin.H{"codes": out})
}

// upsertCommonCodeRequest defines the insert/edit body.
type upsertCommonCodeRequest struct {
	ID        uint64  `json:"id"`
	GroupCode string  `json:"group_code"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Note      *string `json:"note"`
	SortOrder *int    `json:"sort_order"`
	InUse     *bool   `json:"in_use"`
}

// Insert creates a common code.
func (h *CommonCodeHandler) Insert(c *gin.Context) {
	var body upsertCommonCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	groupCode := strings.TrimSpace(body.GroupCode)
	code := strings.TrimSpace(body.Code)
	name := strings.TrimSpace(body.Name)
	if groupCode == "" || code == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing group_code, code, or name"})
		return
	}

	now := time.Now().UTC()
	row := models.CommonCode{
		GroupCode: groupCode,
		Code:      code,
		Name:      name,
		InUse:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if body.Note != nil {
		row.Note = strings.TrimSpace(*body.Note)
	}
	if body.SortOrder != nil {
		row.SortOrder = *body.SortOrder
	}
	if body.InUse != nil {
		row.InUse = *body.InUse
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insert failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": row.ID})
}

// Edit updates a common code by id.
func (h *CommonCodeHandler) Edit(c *gin.Context) {
	var body upsertCommonCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if name := strings.TrimSpace(body.Name); name != "" {
		updates["name"] = name
	}
	if body.Note != nil {
		updates["note"] = strings.TrimSpace(*body.Note)
	}
	if body.SortOrder != nil {
		updates["sort_order"] = *body.SortOrder
	}
	if body.InUse != nil {
		updates["in_use"] = *body.InUse
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.CommonCode{}).
		Where("id = ?", body.ID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "edit failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// deleteCommonCodeRequest defines the delete body.
type deleteCommonCodeRequest struct {
	ID uint64 `json:"id"`
}

// Delete removes a common code by id.
func (h *CommonCodeHandler) Delete(c *gin.Context) {
	var body deleteCommonCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.CommonCode{}, body.ID)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
