package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/internal/ai"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/policy"
	"github.com/suportia/helpdesk/internal/service"
)

type AIHandler struct {
	advisor    *ai.Advisor
	agg        *service.Aggregator
	pol        *policy.Policy
	production bool
}

func NewAIHandler(advisor *ai.Advisor, agg *service.Aggregator, pol *policy.Policy, production bool) *AIHandler {
	return &AIHandler{advisor: advisor, agg: agg, pol: pol, production: production}
}

type suggestRequest struct {
	TicketID int `json:"ticketId" binding:"required"`
}

// Suggest returns a model-drafted reply for a local ticket's conversation.
func (h *AIHandler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	detail, err := h.agg.LocalDetail(c.Request.Context(), req.TicketID)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
			return
		}
		internalError(c, h.production, err)
		return
	}

	suggestion, err := h.advisor.SuggestResponse(c.Request.Context(), &detail.Ticket, detail.Messages)
	if err != nil {
		if errors.Is(err, errs.ErrAINotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "OPENAI_API_KEY not configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "AI Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

type analyzeRequest struct {
	TicketID int    `json:"ticketId" binding:"required"`
	Source   string `json:"source"`
}

// Analyze returns a structured analysis for a ticket of either source.
// Remote tickets are gated by the same role rule as remote detail access.
func (h *AIHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID := auth.UserID(c)
	profile, err := h.pol.Resolve(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.production, err)
		return
	}

	var detail *service.TicketDetail
	if policy.IsRemoteTicket(req.TicketID, req.Source) {
		if !policy.CanAccessRemote(profile.Role) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		detail, err = h.agg.RemoteDetail(c.Request.Context(), req.TicketID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket GLPI not found"})
			return
		}
	} else {
		detail, err = h.agg.LocalDetail(c.Request.Context(), req.TicketID)
		if err != nil {
			if errors.Is(err, errs.ErrTicketNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
				return
			}
			internalError(c, h.production, err)
			return
		}
		if !policy.CanViewLocalTicket(profile.Role, userID, &detail.Ticket) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
	}

	analysis, err := h.advisor.AnalyzeTicket(c.Request.Context(), &detail.Ticket, detail.Messages)
	if err != nil {
		if errors.Is(err, errs.ErrAINotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "OPENAI_API_KEY not configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "AI Error"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}
