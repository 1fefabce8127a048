package model

import (
	"time"

	"gorm.io/datatypes"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// TicketSource marks where a ticket lives. It never changes after creation:
// glpi tickets are merged in read-only and rejected by every write path.
type TicketSource string

const (
	SourceLocal TicketSource = "local"
	SourceGLPI  TicketSource = "glpi"
)

// RemoteIDThreshold is the numeric-id convention used to classify a ticket
// as remote when the caller did not pass an explicit source flag. Local ids
// are serials starting at 1; GLPI ids in the target deployment sit well
// above this. An explicit source flag always wins over the threshold.
const RemoteIDThreshold = 1000

type MessageType string

const (
	MessageTypeText         MessageType = "text"
	MessageTypeSystem       MessageType = "system"
	MessageTypeInternalNote MessageType = "internal_note"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

func ValidRole(r string) bool {
	switch Role(r) {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is the identity record owned by the auth collaborator.
type User struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	FirstName string    `gorm:"type:varchar(128)" json:"firstName,omitempty"`
	LastName  string    `gorm:"type:varchar(128)" json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile carries the role attached to a user. It is the sole authorization
// signal and is lazily created with role=customer on first authenticated
// access.
type Profile struct {
	ID     int    `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"userId"`
	Role   Role   `gorm:"type:varchar(32);not null;default:customer" json:"role"`
}

// Ticket is the canonical, source-tagged ticket shape. Local tickets live in
// postgres; GLPI tickets are normalized into this shape at read time and
// never persisted. Source and GlpiData exist only at runtime.
type Ticket struct {
	ID           int                         `gorm:"primaryKey" json:"id"`
	Title        string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description  string                      `gorm:"type:text;not null" json:"description"`
	Status       TicketStatus                `gorm:"type:varchar(32);index;not null;default:open" json:"status"`
	Priority     TicketPriority              `gorm:"type:varchar(32);index;not null;default:medium" json:"priority"`
	Category     string                      `gorm:"type:varchar(64);not null;default:general" json:"category"`
	Channel      string                      `gorm:"type:varchar(32);not null;default:web" json:"channel"`
	CustomerID   string                      `gorm:"type:varchar(64);index;not null" json:"customerId"`
	AssignedToID *string                     `gorm:"type:varchar(64);index" json:"assignedToId"`
	Tags         datatypes.JSONSlice[string] `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Source   TicketSource   `gorm:"-" json:"source"`
	GlpiData map[string]any `gorm:"-" json:"glpiData,omitempty"`
}

// TicketMessage is one entry in a ticket's conversation. GLPI followups are
// mapped into this shape at read time with synthetic ids; they are never
// persisted.
type TicketMessage struct {
	ID       int         `gorm:"primaryKey" json:"id"`
	TicketID int         `gorm:"index;not null" json:"ticketId"`
	SenderID string      `gorm:"type:varchar(64);not null" json:"senderId"`
	Content  string      `gorm:"type:text;not null" json:"content"`
	Type     MessageType `gorm:"type:varchar(32);not null;default:text" json:"type"`

	CreatedAt time.Time `json:"createdAt"`

	Source TicketSource `gorm:"-" json:"source,omitempty"`
}

// Article is a knowledge-base entry.
type Article struct {
	ID       int                         `gorm:"primaryKey" json:"id"`
	Title    string                      `gorm:"type:varchar(255);not null" json:"title"`
	Content  string                      `gorm:"type:text;not null" json:"content"`
	AuthorID string                      `gorm:"type:varchar(64);not null" json:"authorId"`
	IsPublic bool                        `gorm:"not null;default:true" json:"isPublic"`
	Tags     datatypes.JSONSlice[string] `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Technician is an agent account joined with its profile. The password field
// is excluded from serialization by the User json tags.
type Technician struct {
	User
	Profile Profile `json:"profile"`
}
