package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ravicodry/dastaavej/middleware"
	"github.com/ravicodry/dastaavej/service"
)

type LeadHandler struct {
	flow *service.FlowService
}

func NewLeadHandler(flow *service.FlowService) *LeadHandler {
	return &LeadHandler{flow: flow}
}

type leadRequest struct {
	DocNo   string `json:"doc_no"`
	DocName string `json:"doc_name" binding:"required"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Submit captures a lead for one missing document or a bulk manual search
func (h *LeadHandler) Submit(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	orderID, notified, err := h.flow.SubmitLead(c.Request.Context(), sessionID, req.DocNo, req.DocName, req.Name, req.Email, req.Phone)
	if err != nil {
		respondFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"notified": notified,
	})
}
