// Package glpi is the read-only gateway to an external GLPI instance. It
// speaks the session-token protocol (initSession / killSession / Ticket
// resource family) and normalizes every remote record into the canonical
// model.Ticket shape.
//
// Failure policy: listing-style calls (GetLastTicket, GetTickets,
// GetTicketFollowups) never return an error — they log and degrade to
// zero/empty so the aggregation layer is unaffected by a remote outage.
// GetTicketDetail distinguishes errs.ErrRemoteNotFound from
// errs.ErrRemoteUnavailable so callers can tell the two apart.
package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/model"
)

const (
	// sessionDuration is fixed from issuance; the GLPI API does not declare
	// an expiry of its own.
	sessionDuration = time.Hour

	requestTimeout = 5 * time.Second
)

// Config carries the three credentials the gateway needs. The gateway is
// configured only when all three are non-empty.
type Config struct {
	BaseURL   string
	AppToken  string
	UserToken string
}

// sessionStore holds the cached session token. It is owned by the Client
// instance: concurrent requests may race to renew, which is harmless
// because re-authenticating twice is idempotent.
type sessionStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (s *sessionStore) get(now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && now.Before(s.expiresAt) {
		return s.token, true
	}
	return "", false
}

func (s *sessionStore) put(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
}

func (s *sessionStore) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// AuthError reports a non-2xx response from initSession, carrying the
// upstream status and body text.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("glpi: auth failed: status %d", e.Status)
	}
	return fmt.Sprintf("glpi: auth failed: status %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL    string
	appToken   string
	userToken  string
	httpClient *http.Client
	session    sessionStore
	now        func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		appToken:   cfg.AppToken,
		userToken:  cfg.UserToken,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

// IsConfigured reports whether base URL, app token and user token are all
// set. All other operations degrade to empty/zero results when they are not.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.appToken != "" && c.userToken != ""
}

// sessionToken returns the cached token while it is fresh, authenticating
// otherwise.
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	if token, ok := c.session.get(c.now()); ok {
		return token, nil
	}
	return c.initSession(ctx)
}

type sessionResponse struct {
	SessionToken string `json:"session_token"`
}

func (c *Client) initSession(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"initSession", nil)
	if err != nil {
		return "", fmt.Errorf("glpi: init session request: %w", err)
	}
	req.Header.Set("App-Token", c.appToken)
	req.Header.Set("Authorization", "user_token "+c.userToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("glpi: auth request timeout: %w", errs.ErrRemoteUnavailable)
		}
		return "", fmt.Errorf("glpi: auth request: %w: %v", errs.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &AuthError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("glpi: decode session response: %w", err)
	}
	c.session.put(sr.SessionToken, c.now().Add(sessionDuration))
	log.Printf("[glpi] session started")
	return sr.SessionToken, nil
}

// doGET performs a session-authenticated GET. On a 401 it invalidates the
// session cache and retries exactly once with a fresh token; the second 401
// fails instead of recursing.
func (c *Client) doGET(ctx context.Context, path string, query url.Values) ([]byte, error) {
	lastStatus := 0
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.sessionToken(ctx)
		if err != nil {
			return nil, err
		}

		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("glpi: request %s: %w", path, err)
		}
		req.Header.Set("Session-Token", token)
		req.Header.Set("App-Token", c.appToken)
		req.Header.Set("Content-Type", "application/json")

		start := c.now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			cancel()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("glpi: GET %s timeout: %w", path, errs.ErrRemoteUnavailable)
			}
			return nil, fmt.Errorf("glpi: GET %s: %w: %v", path, errs.ErrRemoteUnavailable, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		log.Printf("[glpi] GET %s: %d (%s)", path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			// Session expired upstream; renew and retry once.
			lastStatus = resp.StatusCode
			c.session.invalidate()
			continue
		case resp.StatusCode == http.StatusNotFound:
			return nil, errs.ErrRemoteNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("glpi: GET %s: status %d: %w", path, resp.StatusCode, errs.ErrRemoteUnavailable)
		}
		if readErr != nil {
			return nil, fmt.Errorf("glpi: read response: %w: %v", errs.ErrRemoteUnavailable, readErr)
		}
		return body, nil
	}
	return nil, fmt.Errorf("glpi: session rejected twice (status %d): %w", lastStatus, errs.ErrRemoteUnavailable)
}

// GetLastTicket fetches the single most-recent remote ticket and returns its
// id, used as a population-size proxy: the GLPI API exposes no count
// endpoint. Returns 0 on any failure or when unconfigured.
func (c *Client) GetLastTicket(ctx context.Context) int {
	if !c.IsConfigured() {
		return 0
	}
	q := url.Values{}
	q.Set("range", "0-0")
	q.Set("order", "DESC")
	body, err := c.doGET(ctx, "Ticket/", q)
	if err != nil {
		log.Printf("[glpi] last ticket: %v", err)
		return 0
	}
	var tickets []glpiTicket
	if err := json.Unmarshal(body, &tickets); err != nil {
		log.Printf("[glpi] last ticket: decode: %v", err)
		return 0
	}
	if len(tickets) == 0 {
		return 0
	}
	return tickets[0].ID
}

// GetTickets lists remote tickets. rng is the GLPI "start-end" pagination
// window, order is ASC/DESC by creation, searchText is forwarded as-is. An
// empty result means "no remote tickets available now", not "zero exist":
// every failure collapses to an empty slice.
func (c *Client) GetTickets(ctx context.Context, rng, order, searchText string) []model.Ticket {
	if !c.IsConfigured() {
		return nil
	}
	q := url.Values{}
	if rng != "" {
		q.Set("range", rng)
	}
	if order != "" {
		q.Set("order", order)
	}
	if searchText != "" {
		q.Set("searchText", searchText)
	}
	body, err := c.doGET(ctx, "Ticket/", q)
	if err != nil {
		log.Printf("[glpi] list tickets: %v", err)
		return nil
	}
	var raw []glpiTicket
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("[glpi] list tickets: decode: %v", err)
		return nil
	}
	tickets := make([]model.Ticket, 0, len(raw))
	for _, t := range raw {
		tickets = append(tickets, transformTicket(t, false))
	}
	return tickets
}

// GetTicketDetail fetches one remote ticket. A 404 maps to
// errs.ErrRemoteNotFound; every other failure maps to
// errs.ErrRemoteUnavailable (wrapped).
func (c *Client) GetTicketDetail(ctx context.Context, id int) (*model.Ticket, error) {
	if !c.IsConfigured() {
		return nil, errs.ErrRemoteUnavailable
	}
	body, err := c.doGET(ctx, fmt.Sprintf("Ticket/%d", id), nil)
	if err != nil {
		if !errors.Is(err, errs.ErrRemoteNotFound) {
			log.Printf("[glpi] ticket %d detail: %v", id, err)
		}
		return nil, err
	}
	var raw glpiTicket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("glpi: decode ticket %d: %w", id, errs.ErrRemoteUnavailable)
	}
	ticket := transformTicket(raw, true)
	return &ticket, nil
}

// GetTicketFollowups lists a remote ticket's followups mapped into the local
// message shape, HTML-decoded. Empty on any failure.
func (c *Client) GetTicketFollowups(ctx context.Context, ticketID int) []model.TicketMessage {
	if !c.IsConfigured() {
		return nil
	}
	body, err := c.doGET(ctx, fmt.Sprintf("Ticket/%d/TicketFollowup", ticketID), nil)
	if err != nil {
		if !errors.Is(err, errs.ErrRemoteNotFound) {
			log.Printf("[glpi] ticket %d followups: %v", ticketID, err)
		}
		return nil
	}
	var raw []glpiFollowup
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("[glpi] ticket %d followups: decode: %v", ticketID, err)
		return nil
	}
	messages := make([]model.TicketMessage, 0, len(raw))
	for _, f := range raw {
		messages = append(messages, transformFollowup(ticketID, f))
	}
	return messages
}

// KillSession closes the remote session and clears the cache. Best-effort.
func (c *Client) KillSession(ctx context.Context) {
	token, ok := c.session.get(c.now())
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"killSession", nil)
	if err != nil {
		return
	}
	req.Header.Set("Session-Token", token)
	req.Header.Set("App-Token", c.appToken)
	if resp, err := c.httpClient.Do(req); err == nil {
		resp.Body.Close()
	}
	c.session.invalidate()
	log.Printf("[glpi] session closed")
}
