package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakutaro/tanabota/internal/models"
	"github.com/sakutaro/tanabota/internal/service"
)

// POSHandler serves the point-of-sale settlement endpoint.
type POSHandler struct {
	POS *service.POSService
}

type executeRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
	// Amount is a pointer so 0 passes the required check.
	Amount *int64 `json:"amount" binding:"required,gte=0,lte=999999999999"`
	// Category is the optional spend category
	// (e.g. コンビニ / 推し活 / 食費-ランチ).
	Category string `json:"category"`
}

type executionItem struct {
	RuleID         int64  `json:"rule_id"`
	ActionID       int64  `json:"action_id"`
	ActionType     string `json:"action_type"`
	TanabotaAmount int64  `json:"tanabota_amount"`
}

type executeResponse struct {
	TransactionID int64           `json:"transaction_id"`
	AmountPaid    int64           `json:"amount_paid"`
	TanabotaTotal int64           `json:"tanabota_total"`
	Executions    []executionItem `json:"executions"`
}

// Execute settles one payment against the user's rules and returns the
// windfall breakdown.
func (h *POSHandler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	tx, logs, err := h.POS.Execute(c.Request.Context(), models.PaymentEvent{
		UserID:     req.UserID,
		AmountPaid: *req.Amount,
		Category:   req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	executions := make([]executionItem, len(logs))
	for i, log := range logs {
		executions[i] = executionItem{
			RuleID:         log.RuleID,
			ActionID:       log.ActionID,
			ActionType:     log.ActionType,
			TanabotaAmount: log.TanabotaAmount,
		}
	}

	c.JSON(http.StatusOK, executeResponse{
		TransactionID: tx.ID,
		AmountPaid:    tx.AmountPaid,
		TanabotaTotal: tx.TanabotaTotal,
		Executions:    executions,
	})
}
