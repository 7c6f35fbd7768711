package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"leasewise-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LegalUpdateHandler serves the read-only API over persisted legal
// updates and compliance content. The pipeline itself is triggered
// externally; no mutation endpoints exist here.
type LegalUpdateHandler struct {
	recordRepo  *repository.LegalRecordRepository
	contentRepo *repository.ContentRepository
}

// NewLegalUpdateHandler creates a new legal update handler
func NewLegalUpdateHandler(recordRepo *repository.LegalRecordRepository, contentRepo *repository.ContentRepository) *LegalUpdateHandler {
	return &LegalUpdateHandler{
		recordRepo:  recordRepo,
		contentRepo: contentRepo,
	}
}

// ListLegalUpdates handles GET /api/legal-updates?state=CA&limit=50&offset=0
// Dismissed records are excluded from listings.
func (h *LegalUpdateHandler) ListLegalUpdates(c *gin.Context) {
	state := strings.ToUpper(c.Query("state"))
	if state == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_STATE",
				"message": "state query parameter is required",
			},
		})
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	records, err := h.recordRepo.ListByState(c.Request.Context(), state, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"legal_updates": records,
		"count":         len(records),
	})
}

// GetLegalUpdate handles GET /api/legal-updates/:id
func (h *LegalUpdateHandler) GetLegalUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid legal update id format",
			},
		})
		return
	}

	record, err := h.recordRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Legal update not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"legal_update": record,
	})
}

// ListComplianceCards handles GET /api/compliance-cards?state=CA
func (h *LegalUpdateHandler) ListComplianceCards(c *gin.Context) {
	state := strings.ToUpper(c.Query("state"))
	if state == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_STATE",
				"message": "state query parameter is required",
			},
		})
		return
	}

	cards, err := h.contentRepo.ListComplianceCardsByState(c.Request.Context(), state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"compliance_cards": cards,
		"count":            len(cards),
	})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
