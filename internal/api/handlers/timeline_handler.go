package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/backend-go/internal/service"
)

type TimelineHandler struct {
	service *service.TimelineService
}

func NewTimelineHandler(service *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// parseToday reads the optional ?today= override, defaulting to the current
// UTC day. The override exists so clients can render the calendar as of a
// fixed date.
func parseToday(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("today"))
	if raw == "" {
		return domain.CivilDate(time.Now()), true
	}

	today, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid today parameter, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return domain.CivilDate(today), true
}

func (h *TimelineHandler) GetTimeline(c *gin.Context) {
	code := c.Param("code")
	today, ok := parseToday(c)
	if !ok {
		return
	}

	result, err := h.service.Timeline(c.Request.Context(), code, today)
	if err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			// A newer request for this product took over; the client that
			// issued it will receive the fresh result.
			c.JSON(http.StatusConflict, gin.H{"error": "request superseded by a newer one"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute timeline", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TimelineHandler) GetReorder(c *gin.Context) {
	code := c.Param("code")

	trigger, err := h.service.Reorder(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute reorder trigger", "details": err.Error()})
		return
	}

	if trigger == nil {
		// No projected stockout; nothing to order.
		c.Status(http.StatusNoContent)
		return
	}

	requiredQty := "N/A"
	if trigger.RequiredOrderQuantity != nil {
		requiredQty = strconv.Itoa(*trigger.RequiredOrderQuantity)
	}

	c.JSON(http.StatusOK, gin.H{
		"place_order_date":        trigger.PlaceOrderDate.Format("2006-01-02"),
		"required_order_quantity": requiredQty,
	})
}

func (h *TimelineHandler) Refresh(c *gin.Context) {
	code := c.Param("code")

	if err := h.service.Refresh(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request refresh", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "refresh requested"})
}

func (h *TimelineHandler) ExportSnapshot(c *gin.Context) {
	code := c.Param("code")
	today, ok := parseToday(c)
	if !ok {
		return
	}

	key, err := h.service.ExportSnapshot(c.Request.Context(), code, today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export snapshot", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}
