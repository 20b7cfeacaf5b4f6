package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/backend-go/internal/service"
)

type ForecastPeriodHandler struct {
	service *service.ForecastPeriodService
}

func NewForecastPeriodHandler(service *service.ForecastPeriodService) *ForecastPeriodHandler {
	return &ForecastPeriodHandler{service: service}
}

type forecastPeriodRequest struct {
	StartDate string          `json:"start_date" binding:"required"`
	EndDate   string          `json:"end_date" binding:"required"`
	DailyRate decimal.Decimal `json:"daily_rate" binding:"required"`
}

func (r forecastPeriodRequest) toDomain() (domain.ForecastPeriod, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return domain.ForecastPeriod{}, domain.ErrInvalidRange
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return domain.ForecastPeriod{}, domain.ErrInvalidRange
	}

	return domain.ForecastPeriod{
		StartDate: start,
		EndDate:   end,
		DailyRate: r.DailyRate,
	}, nil
}

func parseProductID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}

func (h *ForecastPeriodHandler) List(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	periods, err := h.service.List(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list forecast periods", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

func (h *ForecastPeriodHandler) Add(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req forecastPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	period, err := req.toDomain()
	if err != nil {
		writePeriodError(c, err)
		return
	}

	periods, err := h.service.Add(c.Request.Context(), productID, period)
	if err != nil {
		writePeriodError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"periods": periods})
}

func (h *ForecastPeriodHandler) Edit(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	clientID := c.Param("clientId")

	var req forecastPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	period, err := req.toDomain()
	if err != nil {
		writePeriodError(c, err)
		return
	}

	periods, err := h.service.Edit(c.Request.Context(), productID, clientID, period)
	if err != nil {
		writePeriodError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

func (h *ForecastPeriodHandler) Delete(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	clientID := c.Param("clientId")

	periods, err := h.service.Delete(c.Request.Context(), productID, clientID)
	if err != nil {
		writePeriodError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

func (h *ForecastPeriodHandler) NextStart(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	next, err := h.service.ProposeNextStart(c.Request.Context(), productID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to propose next start date", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"next_start_date": next.Format("2006-01-02")})
}

func writePeriodError(c *gin.Context, err error) {
	var overlap *domain.OverlapError
	switch {
	case errors.As(err, &overlap):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrInvalidRate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update forecast periods", "details": err.Error()})
	}
}
