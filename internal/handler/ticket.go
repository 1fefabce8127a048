package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/kafka"
	"github.com/suportia/helpdesk/internal/model"
	"github.com/suportia/helpdesk/internal/policy"
	"github.com/suportia/helpdesk/internal/searchindex"
	"github.com/suportia/helpdesk/internal/service"
	"gorm.io/datatypes"
)

type TicketHandler struct {
	agg        *service.Aggregator
	tickets    *service.TicketService
	pol        *policy.Policy
	events     kafka.TicketEventProducer
	search     *searchindex.Client
	production bool
}

func NewTicketHandler(agg *service.Aggregator, tickets *service.TicketService, pol *policy.Policy, events kafka.TicketEventProducer, search *searchindex.Client, production bool) *TicketHandler {
	return &TicketHandler{agg: agg, tickets: tickets, pol: pol, events: events, search: search, production: production}
}

// List merges local and (for agents/admins) GLPI tickets into one filtered,
// sorted envelope.
func (h *TicketHandler) List(c *gin.Context) {
	userID := auth.UserID(c)
	profile, err := h.pol.Resolve(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.production, err)
		return
	}

	scope := policy.ScopeFor(profile.Role, userID, c.Query("assignedToMe") == "true")
	result, err := h.agg.List(c.Request.Context(), service.ListParams{
		Scope:      scope,
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Range:      c.Query("range"),
		Order:      c.Query("order"),
		SearchText: c.Query("searchText"),
	})
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createTicketRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Channel     string   `json:"channel"`
	Tags        []string `json:"tags"`
}

// Create stores a local ticket. customerId is always forced to the caller.
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Status == "" {
		req.Status = string(model.TicketStatusOpen)
	}
	if req.Priority == "" {
		req.Priority = string(model.TicketPriorityMedium)
	}
	if req.Category == "" {
		req.Category = "general"
	}
	if req.Channel == "" {
		req.Channel = "web"
	}
	if !validStatus(req.Status) {
		badRequest(c, &errs.ValidationError{Field: "status", Message: "invalid status"})
		return
	}
	if !validPriority(req.Priority) {
		badRequest(c, &errs.ValidationError{Field: "priority", Message: "invalid priority"})
		return
	}

	ticket := &model.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TicketStatus(req.Status),
		Priority:    model.TicketPriority(req.Priority),
		Category:    req.Category,
		Channel:     req.Channel,
		CustomerID:  auth.UserID(c),
		Tags:        datatypes.JSONSlice[string](req.Tags),
	}
	if err := h.tickets.CreateTicket(c.Request.Context(), ticket); err != nil {
		internalError(c, h.production, err)
		return
	}
	ticket.Source = model.SourceLocal
	h.events.ProduceTicketEvent(c.Request.Context(), "ticket.created", ticket)
	h.search.IndexTicketAsync(ticket)
	c.JSON(http.StatusCreated, ticket)
}

// Get routes a detail fetch to GLPI or the local store using the source
// flag / id-threshold heuristic.
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id", "field": "id"})
		return
	}
	userID := auth.UserID(c)
	profile, err := h.pol.Resolve(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.production, err)
		return
	}

	if policy.IsRemoteTicket(id, c.Query("source")) {
		if !policy.CanAccessRemote(profile.Role) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		detail, err := h.agg.RemoteDetail(c.Request.Context(), id)
		if err != nil {
			// Not-found and remote outage both degrade to 404; a GLPI
			// failure must never become a 5xx here.
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket GLPI not found"})
			return
		}
		c.JSON(http.StatusOK, detail)
		return
	}

	detail, err := h.agg.LocalDetail(c.Request.Context(), id)
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
	c.JSON(http.StatusOK, detail)
}

type updateTicketRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Status       *string   `json:"status"`
	Priority     *string   `json:"priority"`
	Category     *string   `json:"category"`
	AssignedToID *string   `json:"assignedToId"`
	Tags         *[]string `json:"tags"`
}

// Update applies a partial update to a local ticket. GLPI-sourced ids are
// rejected here, not just hidden by the UI.
func (h *TicketHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id", "field": "id"})
		return
	}
	if policy.IsRemoteTicket(id, c.Query("source")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "GLPI tickets are read-only"})
		return
	}

	userID := auth.UserID(c)
	profile, err := h.pol.Resolve(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	ticket, err := h.tickets.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
			return
		}
		internalError(c, h.production, err)
		return
	}
	if !policy.CanMutateLocalTicket(profile.Role, userID, ticket) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	changes := make(map[string]interface{})
	if req.Title != nil {
		changes["title"] = *req.Title
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			badRequest(c, &errs.ValidationError{Field: "status", Message: "invalid status"})
			return
		}
		changes["status"] = *req.Status
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			badRequest(c, &errs.ValidationError{Field: "priority", Message: "invalid priority"})
			return
		}
		changes["priority"] = *req.Priority
	}
	if req.Category != nil {
		changes["category"] = *req.Category
	}
	if req.AssignedToID != nil {
		if *req.AssignedToID == "" {
			changes["assigned_to_id"] = nil
		} else {
			changes["assigned_to_id"] = *req.AssignedToID
		}
	}
	if req.Tags != nil {
		changes["tags"] = datatypes.JSONSlice[string](*req.Tags)
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no changes", "field": ""})
		return
	}

	updated, err := h.tickets.UpdateTicket(c.Request.Context(), id, changes)
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	updated.Source = model.SourceLocal
	h.events.ProduceTicketEvent(c.Request.Context(), "ticket.updated", updated)
	h.search.IndexTicketAsync(updated)
	c.JSON(http.StatusOK, updated)
}

type createMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

// CreateMessage appends to a local ticket's conversation.
func (h *TicketHandler) CreateMessage(c *gin.Context) {
	ticketID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id", "field": "id"})
		return
	}
	if policy.IsRemoteTicket(ticketID, c.Query("source")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "GLPI tickets are read-only"})
		return
	}

	userID := auth.UserID(c)
	profile, err := h.pol.Resolve(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	ticket, err := h.tickets.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
			return
		}
		internalError(c, h.production, err)
		return
	}
	if !policy.CanMutateLocalTicket(profile.Role, userID, ticket) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Type == "" {
		req.Type = string(model.MessageTypeText)
	}
	if !validMessageType(req.Type) {
		badRequest(c, &errs.ValidationError{Field: "type", Message: "invalid message type"})
		return
	}
	message := &model.TicketMessage{
		TicketID: ticketID,
		SenderID: userID,
		Content:  req.Content,
		Type:     model.MessageType(req.Type),
	}
	if err := h.tickets.CreateMessage(c.Request.Context(), message); err != nil {
		internalError(c, h.production, err)
		return
	}
	h.events.ProduceTicketEvent(c.Request.Context(), "ticket.message.created", ticket)
	c.JSON(http.StatusCreated, message)
}

func validStatus(s string) bool {
	switch model.TicketStatus(s) {
	case model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusResolved, model.TicketStatusClosed:
		return true
	}
	return false
}

func validPriority(s string) bool {
	switch model.TicketPriority(s) {
	case model.TicketPriorityLow, model.TicketPriorityMedium, model.TicketPriorityHigh, model.TicketPriorityCritical:
		return true
	}
	return false
}

func validMessageType(s string) bool {
	switch model.MessageType(s) {
	case model.MessageTypeText, model.MessageTypeSystem, model.MessageTypeInternalNote:
		return true
	}
	return false
}
