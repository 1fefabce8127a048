// Package policy resolves a caller's role and computes the visibility rules
// applied by the aggregation layer.
//
// Rule table:
//
//	customer  own tickets only, no GLPI visibility, mutates only own local tickets
//	agent     all local tickets (optionally narrowed to assigned), GLPI visible
//	admin     all local tickets, GLPI visible, manages technicians
package policy

import (
	"context"

	"github.com/suportia/helpdesk/internal/model"
)

// ProfileStore is the slice of the local store the policy needs.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	CreateProfile(ctx context.Context, userID string, role model.Role) (*model.Profile, error)
}

type Policy struct {
	profiles ProfileStore
}

func New(profiles ProfileStore) *Policy {
	return &Policy{profiles: profiles}
}

// Resolve returns the caller's profile, creating one with role=customer on
// first authenticated access. Creation is a side effect of the read and is
// idempotent: subsequent reads see the created profile.
func (p *Policy) Resolve(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := p.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	return p.profiles.CreateProfile(ctx, userID, model.RoleCustomer)
}

// ListScope is the role-derived constraint set for a ticket listing.
type ListScope struct {
	// CustomerID, when set, restricts the local query to that customer's
	// tickets.
	CustomerID string
	// AssignedToID, when set, restricts the local query to tickets assigned
	// to that user.
	AssignedToID string
	// IncludeRemote allows GLPI tickets into the merged listing.
	IncludeRemote bool
}

// ScopeFor computes the listing scope for a role. assignedToMe is the
// caller-supplied narrowing flag, honored for agents and admins.
func ScopeFor(role model.Role, userID string, assignedToMe bool) ListScope {
	if role == model.RoleCustomer {
		return ListScope{CustomerID: userID}
	}
	scope := ListScope{IncludeRemote: true}
	if assignedToMe {
		scope.AssignedToID = userID
	}
	return scope
}

// IsRemoteTicket classifies a requested ticket id. An explicit source flag
// wins; without one, ids above model.RemoteIDThreshold are treated as remote
// by convention.
func IsRemoteTicket(id int, source string) bool {
	if source == string(model.SourceGLPI) {
		return true
	}
	if source == string(model.SourceLocal) {
		return false
	}
	return id > model.RemoteIDThreshold
}

// CanAccessRemote reports whether a role may read GLPI tickets.
func CanAccessRemote(role model.Role) bool {
	return role == model.RoleAgent || role == model.RoleAdmin
}

// CanViewLocalTicket reports whether the caller may read a local ticket.
// Customers only see their own.
func CanViewLocalTicket(role model.Role, userID string, t *model.Ticket) bool {
	if role == model.RoleCustomer {
		return t.CustomerID == userID
	}
	return true
}

// CanMutateLocalTicket reports whether the caller may change a local ticket.
// Remote tickets are rejected before this check is ever reached.
func CanMutateLocalTicket(role model.Role, userID string, t *model.Ticket) bool {
	if role == model.RoleCustomer {
		return t.CustomerID == userID
	}
	return true
}

// CanManageTechnicians reports whether a role may create or delete agent
// accounts.
func CanManageTechnicians(role model.Role) bool {
	return role == model.RoleAdmin
}
