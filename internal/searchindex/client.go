package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/suportia/helpdesk/internal/model"
)

// Client pushes local tickets to the search service for indexing
// (best-effort, never blocks the API). Remote GLPI tickets are never
// indexed: they are read-only pass-through data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client. With an empty baseURL, IndexTicket is a no-op.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// IndexTicketPayload is the body of POST /search/index/ticket.
type IndexTicketPayload struct {
	TicketID    int      `json:"ticket_id"`
	CustomerID  string   `json:"customer_id"`
	AssignedTo  string   `json:"assigned_to_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
}

// IndexTicket sends one ticket to the search service.
func (c *Client) IndexTicket(ctx context.Context, t *model.Ticket) {
	if c.baseURL == "" {
		return
	}
	payload := IndexTicketPayload{
		TicketID:    t.ID,
		CustomerID:  t.CustomerID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Category:    t.Category,
		Tags:        []string(t.Tags),
	}
	if t.AssignedToID != nil {
		payload.AssignedTo = *t.AssignedToID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("searchindex: marshal: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/index/ticket", bytes.NewReader(body))
	if err != nil {
		log.Printf("searchindex: new request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("searchindex: request: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("searchindex: status %d for ticket %d", resp.StatusCode, t.ID)
	}
}

// IndexTicketAsync runs IndexTicket in its own goroutine so the API response
// is never blocked on indexing.
func (c *Client) IndexTicketAsync(t *model.Ticket) {
	if c.baseURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.IndexTicket(ctx, t)
	}()
}
