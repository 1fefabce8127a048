package service

import (
	"context"
	"errors"
	"time"

	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/model"
	"gorm.io/gorm"
)

// TicketFilters are the predicates pushed down to the local store query.
type TicketFilters struct {
	Status       string
	Priority     string
	CustomerID   string
	AssignedToID string
}

// TicketService is the local ticket store: filtered CRUD over tickets and
// their messages.
type TicketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

// ListTickets returns local tickets matching the filters, newest first.
func (s *TicketService) ListTickets(ctx context.Context, f TicketFilters) ([]model.Ticket, error) {
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		tx = tx.Where("priority = ?", f.Priority)
	}
	if f.CustomerID != "" {
		tx = tx.Where("customer_id = ?", f.CustomerID)
	}
	if f.AssignedToID != "" {
		tx = tx.Where("assigned_to_id = ?", f.AssignedToID)
	}
	var items []model.Ticket
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id int) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TicketService) CreateTicket(ctx context.Context, t *model.Ticket) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// UpdateTicket applies a partial update and returns the refreshed ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, id int, changes map[string]interface{}) (*model.Ticket, error) {
	t, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	changes["updated_at"] = time.Now()
	if err := s.db.WithContext(ctx).Model(t).Updates(changes).Error; err != nil {
		return nil, err
	}
	return s.GetTicket(ctx, id)
}

// ListMessages returns a ticket's conversation in creation order.
func (s *TicketService) ListMessages(ctx context.Context, ticketID int) ([]model.TicketMessage, error) {
	var items []model.TicketMessage
	err := s.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *TicketService) CreateMessage(ctx context.Context, m *model.TicketMessage) error {
	return s.db.WithContext(ctx).Create(m).Error
}
