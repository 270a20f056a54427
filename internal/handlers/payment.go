// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /rail/approve
func (h *PaymentHandler) Approve(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.ApproveRequest
	if !bindJSON(c, &req) {
		return
	}

	balance, err := h.paymentService.Approve(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, balance)
}

// GET /rail/balance
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	if other := c.Query("account"); other != "" {
		account = other
	}

	balance, err := h.paymentService.Balance(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, balance)
}

// POST /rail/mint
func (h *PaymentHandler) Mint(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.MintRequest
	if !bindJSON(c, &req) {
		return
	}

	balance, err := h.paymentService.Mint(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, balance)
}
