package gate_test

import (
	"context"
	"testing"

	"github.com/Pedrom2002/airline-satisfaction-webapp/gate"
)

// adminOnlyPolicy allows everything for the admin subject, nothing otherwise.
type adminOnlyPolicy struct{ admin uint }

func (p *adminOnlyPolicy) Can(_ context.Context, user uint, _ gate.Action, _ any) bool {
	return user == p.admin
}

func TestAuthorizeZeroUser(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("table", &adminOnlyPolicy{admin: 1})
	if err := g.Authorize(context.Background(), 0, gate.ActionView, "table", nil); err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthorizeNoPolicy(t *testing.T) {
	g := gate.NewGate[uint]()
	if err := g.Authorize(context.Background(), 1, gate.ActionView, "unknown", nil); err != gate.ErrNoPolicyDefined {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestAuthorizeAllowedAndDenied(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("table", &adminOnlyPolicy{admin: 1})
	if err := g.Authorize(context.Background(), 1, gate.ActionDelete, "table", "users"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := g.Authorize(context.Background(), 2, gate.ActionDelete, "table", "users"); err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if !g.Can(context.Background(), 1, gate.ActionList, "table", nil) {
		t.Error("Can should be true for admin")
	}
}
