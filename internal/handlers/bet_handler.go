package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/inzamam-virk/lottery-app/internal/middleware"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/services"
)

// BetHandler handles dealer bet and refund requests
type BetHandler struct {
	betService services.BetService
}

// NewBetHandler creates a new BetHandler
func NewBetHandler(betService services.BetService) *BetHandler {
	return &BetHandler{betService: betService}
}

// PlaceBetRequest is the body of POST /bets. An empty draw_id targets the current draw.
type PlaceBetRequest struct {
	DrawID      string          `json:"draw_id"`
	ClientName  string          `json:"client_name"`
	ClientPhone string          `json:"client_phone"`
	Number      *int            `json:"number" binding:"required"`
	Stake       decimal.Decimal `json:"stake"`
}

// PlaceBet handles POST /bets
func (h *BetHandler) PlaceBet(c *gin.Context) {
	var req PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.betService.PlaceBet(c.Request.Context(), models.BetCandidate{
		DealerID:    c.GetString(middleware.ContextUserID),
		DrawID:      req.DrawID,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Number:      *req.Number,
		Stake:       req.Stake,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Accepted {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListBets handles GET /bets?draw_id=&status= for the calling dealer
func (h *BetHandler) ListBets(c *gin.Context) {
	status, ok := parseBetStatus(c)
	if !ok {
		return
	}
	bets, err := h.betService.ListBets(c.Request.Context(), models.BetFilter{
		DealerID: c.GetString(middleware.ContextUserID),
		DrawID:   c.Query("draw_id"),
		Status:   status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bets)
}

// GetStats handles GET /bets/stats
func (h *BetHandler) GetStats(c *gin.Context) {
	stats, err := h.betService.DealerStats(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetBetRefunds handles GET /bets/:id/refunds
func (h *BetHandler) GetBetRefunds(c *gin.Context) {
	refunds, err := h.betService.RefundsByBet(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refunds)
}

// GetRefunds handles GET /refunds
func (h *BetHandler) GetRefunds(c *gin.Context) {
	refunds, err := h.betService.RefundsByDealer(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refunds)
}
