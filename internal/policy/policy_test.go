package policy

import (
	"context"
	"testing"

	"github.com/suportia/helpdesk/internal/model"
)

type fakeProfiles struct {
	profiles map[string]*model.Profile
	created  int
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	return f.profiles[userID], nil
}

func (f *fakeProfiles) CreateProfile(_ context.Context, userID string, role model.Role) (*model.Profile, error) {
	f.created++
	p := &model.Profile{ID: f.created, UserID: userID, Role: role}
	f.profiles[userID] = p
	return p, nil
}

func TestResolveLazyCreation(t *testing.T) {
	store := &fakeProfiles{profiles: map[string]*model.Profile{}}
	p := New(store)
	ctx := context.Background()

	got, err := p.Resolve(ctx, "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Role != model.RoleCustomer {
		t.Errorf("Role = %q, want customer", got.Role)
	}
	if store.created != 1 {
		t.Errorf("created %d profiles, want 1", store.created)
	}

	// Second resolve reads the created profile instead of creating again.
	if _, err := p.Resolve(ctx, "u1"); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if store.created != 1 {
		t.Errorf("created %d profiles after second resolve, want 1", store.created)
	}
}

func TestResolveKeepsExistingRole(t *testing.T) {
	store := &fakeProfiles{profiles: map[string]*model.Profile{
		"a1": {ID: 1, UserID: "a1", Role: model.RoleAgent},
	}}
	got, err := New(store).Resolve(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Role != model.RoleAgent {
		t.Errorf("Role = %q, want agent", got.Role)
	}
}

func TestScopeFor(t *testing.T) {
	cases := []struct {
		name         string
		role         model.Role
		assignedToMe bool
		want         ListScope
	}{
		{"customer", model.RoleCustomer, false, ListScope{CustomerID: "u1"}},
		{"customer assigned flag ignored", model.RoleCustomer, true, ListScope{CustomerID: "u1"}},
		{"agent", model.RoleAgent, false, ListScope{IncludeRemote: true}},
		{"agent assigned", model.RoleAgent, true, ListScope{AssignedToID: "u1", IncludeRemote: true}},
		{"admin", model.RoleAdmin, false, ListScope{IncludeRemote: true}},
		{"admin assigned", model.RoleAdmin, true, ListScope{AssignedToID: "u1", IncludeRemote: true}},
	}
	for _, c := range cases {
		if got := ScopeFor(c.role, "u1", c.assignedToMe); got != c.want {
			t.Errorf("%s: ScopeFor = %+v, want %+v", c.name, got, c.want)
		}
	}
}

func TestIsRemoteTicket(t *testing.T) {
	cases := []struct {
		id     int
		source string
		want   bool
	}{
		{5, "", false},
		{1000, "", false},
		{1001, "", true},
		{4021, "", true},
		{5, "glpi", true},
		{4021, "local", false},
		{4021, "unknown", true},
	}
	for _, c := range cases {
		if got := IsRemoteTicket(c.id, c.source); got != c.want {
			t.Errorf("IsRemoteTicket(%d, %q) = %v, want %v", c.id, c.source, got, c.want)
		}
	}
}

func TestRoleChecks(t *testing.T) {
	own := &model.Ticket{ID: 1, CustomerID: "u1"}
	other := &model.Ticket{ID: 2, CustomerID: "u2"}

	if CanAccessRemote(model.RoleCustomer) {
		t.Error("customer may not access remote")
	}
	if !CanAccessRemote(model.RoleAgent) || !CanAccessRemote(model.RoleAdmin) {
		t.Error("agent and admin may access remote")
	}

	if !CanViewLocalTicket(model.RoleCustomer, "u1", own) {
		t.Error("customer may view own ticket")
	}
	if CanViewLocalTicket(model.RoleCustomer, "u1", other) {
		t.Error("customer may not view another's ticket")
	}
	if !CanViewLocalTicket(model.RoleAgent, "u1", other) {
		t.Error("agent may view any local ticket")
	}

	if CanMutateLocalTicket(model.RoleCustomer, "u1", other) {
		t.Error("customer may not mutate another's ticket")
	}
	if !CanMutateLocalTicket(model.RoleAdmin, "u1", other) {
		t.Error("admin may mutate any local ticket")
	}

	if CanManageTechnicians(model.RoleAgent) {
		t.Error("agent may not manage technicians")
	}
	if !CanManageTechnicians(model.RoleAdmin) {
		t.Error("admin manages technicians")
	}
}
