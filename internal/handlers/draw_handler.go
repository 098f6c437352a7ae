package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/reports"
	"github.com/inzamam-virk/lottery-app/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DrawHandler handles draw-related HTTP requests
type DrawHandler struct {
	drawService       services.DrawService
	settlementService services.SettlementService
	betService        services.BetService
	clock             clock.Clock
	location          *time.Location
}

// NewDrawHandler creates a new DrawHandler. location is used to render report timestamps.
func NewDrawHandler(
	drawService services.DrawService,
	settlementService services.SettlementService,
	betService services.BetService,
	clk clock.Clock,
	location *time.Location,
) *DrawHandler {
	return &DrawHandler{
		drawService:       drawService,
		settlementService: settlementService,
		betService:        betService,
		clock:             clk,
		location:          location,
	}
}

// RunDrawsRequest is the optional body of a run request. A missing Now means the current time.
type RunDrawsRequest struct {
	Now *time.Time `json:"now"`
}

// GetCurrentDraw handles GET /draws/current
func (h *DrawHandler) GetCurrentDraw(c *gin.Context) {
	draw, err := h.drawService.CurrentDraw(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// GetUpcomingDraws handles GET /draws/upcoming?limit=
func (h *DrawHandler) GetUpcomingDraws(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	draws, err := h.drawService.UpcomingDraws(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draws)
}

// GetCompletedDraws handles GET /draws/completed?limit=
func (h *DrawHandler) GetCompletedDraws(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	draws, err := h.drawService.CompletedDraws(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draws)
}

// GetDrawByID handles GET /draws/:id
func (h *DrawHandler) GetDrawByID(c *gin.Context) {
	draw, err := h.drawService.GetDraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// ScheduleDraws handles POST /jobs/schedule-draws and /admin/draws/schedule
func (h *DrawHandler) ScheduleDraws(c *gin.Context) {
	result, err := h.drawService.ScheduleNextDraw(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// RunDraws handles POST /jobs/run-draws and /admin/draws/run
func (h *DrawHandler) RunDraws(c *gin.Context) {
	var req RunDrawsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	now := h.clock.Now()
	if req.Now != nil {
		now = *req.Now
	}
	result, err := h.settlementService.RunDueDraws(c.Request.Context(), now)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SettleDraw handles POST /admin/draws/:id/settle
func (h *DrawHandler) SettleDraw(c *gin.Context) {
	result, err := h.settlementService.SettleDraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetDrawBets handles GET /admin/draws/:id/bets?status=
func (h *DrawHandler) GetDrawBets(c *gin.Context) {
	status, ok := parseBetStatus(c)
	if !ok {
		return
	}
	bets, err := h.betService.ListBets(c.Request.Context(), models.BetFilter{DrawID: c.Param("id"), Status: status})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bets)
}

// GetDrawReport handles GET /admin/draws/:id/report
func (h *DrawHandler) GetDrawReport(c *gin.Context) {
	ctx := c.Request.Context()
	draw, err := h.drawService.GetDraw(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	bets, err := h.betService.ListBets(ctx, models.BetFilter{DrawID: draw.ID})
	if err != nil {
		respondError(c, err)
		return
	}

	f, err := reports.DrawReport(draw, bets, h.location)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		respondError(c, err)
		return
	}

	filename := "draw-" + draw.ScheduledAt.In(h.location).Format("2006-01-02-1504") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		badRequest(c, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}

func parseBetStatus(c *gin.Context) (models.BetStatus, bool) {
	status := models.BetStatus(c.Query("status"))
	switch status {
	case "", models.BetStatusPending, models.BetStatusWon, models.BetStatusLost, models.BetStatusRefunded:
		return status, true
	}
	badRequest(c, "status must be one of pending, won, lost, refunded")
	return "", false
}
