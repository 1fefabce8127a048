package service

import (
	"context"
	"log"
	"sort"

	"github.com/suportia/helpdesk/internal/model"
	"github.com/suportia/helpdesk/internal/policy"
)

const itemsPerPage = 20

// RemoteGateway is the slice of the GLPI client the aggregator consumes.
// Listing-style methods degrade to zero/empty instead of failing so a remote
// outage never withholds local results.
type RemoteGateway interface {
	IsConfigured() bool
	GetLastTicket(ctx context.Context) int
	GetTickets(ctx context.Context, rng, order, searchText string) []model.Ticket
	GetTicketDetail(ctx context.Context, id int) (*model.Ticket, error)
	GetTicketFollowups(ctx context.Context, ticketID int) []model.TicketMessage
}

// Aggregator merges the local store and the remote gateway into one
// coherent, role-scoped ticket view.
type Aggregator struct {
	tickets *TicketService
	users   *UserService
	remote  RemoteGateway
}

func NewAggregator(tickets *TicketService, users *UserService, remote RemoteGateway) *Aggregator {
	return &Aggregator{tickets: tickets, users: users, remote: remote}
}

// ListParams are the caller-supplied listing inputs after access control.
type ListParams struct {
	Scope      policy.ListScope
	Status     string
	Priority   string
	Range      string // GLPI "start-end" window, default 1-20
	Order      string // ASC/DESC by creation, default DESC
	SearchText string
}

// Pagination reports the remote population estimate as total for contract
// compatibility, alongside the exact local count so consumers can compose
// their own math.
type Pagination struct {
	Total               int `json:"total"`
	LocalTotal          int `json:"localTotal"`
	RemoteTotalEstimate int `json:"remoteTotalEstimate"`
	ItemsPerPage        int `json:"itemsPerPage"`
}

type ListResult struct {
	Tickets    []model.Ticket `json:"tickets"`
	Pagination Pagination     `json:"pagination"`
}

// List produces the merged listing:
//
//  1. local tickets are fetched with all filters pushed down to SQL;
//  2. if the scope allows, a remote page and population estimate are
//     fetched, tolerating any remote failure;
//  3. status/priority filters run a second time over the concatenation —
//     remote tickets bypassed the SQL filters, so skipping this pass would
//     leak unfiltered remote tickets;
//  4. the whole sequence is stably sorted by createdAt descending.
func (a *Aggregator) List(ctx context.Context, p ListParams) (*ListResult, error) {
	local, err := a.tickets.ListTickets(ctx, TicketFilters{
		Status:       p.Status,
		Priority:     p.Priority,
		CustomerID:   p.Scope.CustomerID,
		AssignedToID: p.Scope.AssignedToID,
	})
	if err != nil {
		return nil, err
	}
	for i := range local {
		local[i].Source = model.SourceLocal
	}

	var remote []model.Ticket
	remoteTotal := 0
	if p.Scope.IncludeRemote {
		rng := p.Range
		if rng == "" {
			rng = "1-20"
		}
		order := p.Order
		if order == "" {
			order = "DESC"
		}
		remoteTotal = a.remote.GetLastTicket(ctx)
		remote = a.remote.GetTickets(ctx, rng, order, p.SearchText)
		log.Printf("aggregator: %d glpi tickets merged (estimate %d)", len(remote), remoteTotal)
	}

	all := make([]model.Ticket, 0, len(local)+len(remote))
	all = append(all, local...)
	all = append(all, remote...)

	if p.Status != "" {
		all = filterTickets(all, func(t model.Ticket) bool { return string(t.Status) == p.Status })
	}
	if p.Priority != "" {
		all = filterTickets(all, func(t model.Ticket) bool { return string(t.Priority) == p.Priority })
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return &ListResult{
		Tickets: all,
		Pagination: Pagination{
			Total:               remoteTotal,
			LocalTotal:          len(local),
			RemoteTotalEstimate: remoteTotal,
			ItemsPerPage:        itemsPerPage,
		},
	}, nil
}

func filterTickets(in []model.Ticket, keep func(model.Ticket) bool) []model.Ticket {
	out := in[:0]
	for _, t := range in {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// TicketDetail is a ticket with its conversation and resolved assignee.
type TicketDetail struct {
	model.Ticket
	Messages   []model.TicketMessage `json:"messages"`
	AssignedTo *model.User           `json:"assignedTo"`
}

// LocalDetail loads a local ticket with its message history in creation
// order and the assignee record (password never serialized).
func (a *Aggregator) LocalDetail(ctx context.Context, id int) (*TicketDetail, error) {
	ticket, err := a.tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Source = model.SourceLocal

	messages, err := a.tickets.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	var assignedTo *model.User
	if ticket.AssignedToID != nil {
		if u, err := a.users.GetUser(ctx, *ticket.AssignedToID); err == nil {
			assignedTo = u
		}
	}
	return &TicketDetail{Ticket: *ticket, Messages: messages, AssignedTo: assignedTo}, nil
}

// RemoteDetail loads a GLPI ticket with its followups mapped into messages.
// Followups that arrive without an id get a synthetic one offset well above
// the local message id space.
func (a *Aggregator) RemoteDetail(ctx context.Context, id int) (*TicketDetail, error) {
	ticket, err := a.remote.GetTicketDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	followups := a.remote.GetTicketFollowups(ctx, id)
	messages := make([]model.TicketMessage, 0, len(followups))
	for i, f := range followups {
		if f.ID == 0 {
			f.ID = syntheticMessageID(i)
		}
		messages = append(messages, f)
	}
	return &TicketDetail{Ticket: *ticket, Messages: messages, AssignedTo: nil}, nil
}

func syntheticMessageID(index int) int {
	return 1000000 + index
}
