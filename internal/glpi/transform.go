package glpi

import (
	"fmt"
	"strings"
	"time"

	"github.com/suportia/helpdesk/internal/model"
)

// syntheticMessageIDBase offsets followup message ids that arrive without an
// id of their own, keeping them clear of the local message id space.
const syntheticMessageIDBase = 1000000

// glpiTicket is the upstream Ticket wire shape (the subset this system
// reads; GLPI sends many more fields).
type glpiTicket struct {
	ID                 int     `json:"id"`
	EntitiesID         int     `json:"entities_id"`
	Name               string  `json:"name"`
	Date               string  `json:"date"`
	CloseDate          *string `json:"closedate"`
	SolveDate          *string `json:"solvedate"`
	DateMod            string  `json:"date_mod"`
	Status             int     `json:"status"`
	Content            string  `json:"content"`
	Urgency            int     `json:"urgency"`
	Impact             int     `json:"impact"`
	Priority           int     `json:"priority"`
	ITILCategoriesID   int     `json:"itilcategories_id"`
	Type               int     `json:"type"`
	RequestTypesID     int     `json:"requesttypes_id"`
	UsersIDRecipient   int     `json:"users_id_recipient"`
	UsersIDLastUpdater int     `json:"users_id_lastupdater"`
}

type glpiFollowup struct {
	ID                int    `json:"id"`
	TicketsID         int    `json:"tickets_id"`
	UsersID           int    `json:"users_id"`
	UsersIDTechnician int    `json:"users_id_tech"`
	Content           string `json:"content"`
	Date              string `json:"date"`
	DateCreation      string `json:"date_creation"`
}

// mapStatus translates GLPI's numeric status codes. Unknown codes map to
// open.
func mapStatus(code int) model.TicketStatus {
	switch code {
	case 1: // New
		return model.TicketStatusOpen
	case 2, 3, 4: // Processing, Planning, Pending
		return model.TicketStatusInProgress
	case 5: // Solved
		return model.TicketStatusResolved
	case 6: // Closed
		return model.TicketStatusClosed
	default:
		return model.TicketStatusOpen
	}
}

// mapPriority translates GLPI's 1-5 priority scale. Unknown values map to
// medium.
func mapPriority(code int) model.TicketPriority {
	switch code {
	case 1, 2: // Very low, Low
		return model.TicketPriorityLow
	case 3:
		return model.TicketPriorityMedium
	case 4:
		return model.TicketPriorityHigh
	case 5: // Very high / Major
		return model.TicketPriorityCritical
	default:
		return model.TicketPriorityMedium
	}
}

var entityReplacer = strings.NewReplacer(
	"&#60;", "<",
	"&#62;", ">",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&#39;", "'",
	"&quot;", `"`,
)

// decodeHTML decodes the entity set GLPI emits, strips remaining tags and
// collapses whitespace runs to single spaces.
func decodeHTML(s string) string {
	if s == "" {
		return ""
	}
	s = entityReplacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// parseDate parses GLPI's "YYYY-MM-DD hh:mm:ss" timestamps. Zero time on
// failure.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func transformTicket(t glpiTicket, detail bool) model.Ticket {
	title := t.Name
	if title == "" {
		title = "Sem título"
	}
	glpiData := map[string]any{
		"entities_id":       t.EntitiesID,
		"requesttypes_id":   t.RequestTypesID,
		"itilcategories_id": t.ITILCategoriesID,
		"urgency":           t.Urgency,
		"impact":            t.Impact,
		"closedate":         t.CloseDate,
		"solvedate":         t.SolveDate,
	}
	if detail {
		glpiData["users_id_recipient"] = t.UsersIDRecipient
		glpiData["users_id_lastupdater"] = t.UsersIDLastUpdater
	}
	return model.Ticket{
		ID:          t.ID,
		Title:       title,
		Description: decodeHTML(t.Content),
		Status:      mapStatus(t.Status),
		Priority:    mapPriority(t.Priority),
		Category:    "general",
		Channel:     "glpi",
		CustomerID:  fmt.Sprintf("glpi-user-%d", t.UsersIDRecipient),
		CreatedAt:   parseDate(t.Date),
		UpdatedAt:   parseDate(t.DateMod),
		Source:      model.SourceGLPI,
		GlpiData:    glpiData,
	}
}

func transformFollowup(ticketID int, f glpiFollowup) model.TicketMessage {
	sender := f.UsersID
	if sender == 0 {
		sender = f.UsersIDTechnician
	}
	senderID := "glpi-user-unknown"
	if sender != 0 {
		senderID = fmt.Sprintf("glpi-user-%d", sender)
	}
	date := f.Date
	if date == "" {
		date = f.DateCreation
	}
	return model.TicketMessage{
		ID:        f.ID,
		TicketID:  ticketID,
		SenderID:  senderID,
		Content:   decodeHTML(f.Content),
		Type:      model.MessageTypeText,
		CreatedAt: parseDate(date),
		Source:    model.SourceGLPI,
	}
}
