package session

import (
	"testing"

	"github.com/Danokray/Tablecrm/internal/domain/ident"
	"github.com/Danokray/Tablecrm/internal/domain/order"
)

func TestCompleteRequiresClientAndAllSelections(t *testing.T) {
	s := New("tok")
	if s.Complete() {
		t.Fatal("empty session must not be complete")
	}

	for _, kind := range order.Kinds() {
		s.Select(kind, ident.Int(1))
	}
	if s.Complete() {
		t.Fatal("selections without a client must not be complete")
	}

	s.SetClient(order.Client{ID: ident.Int(42), Phone: "111"})
	if !s.Complete() {
		t.Fatal("session with client and all selections should be complete")
	}

	s.Select(order.KindWarehouse, ident.ID{}) // unset clears
	if s.Complete() {
		t.Fatal("clearing a dimension must make the session incomplete")
	}
}

func TestResetOrderRetainsToken(t *testing.T) {
	s := New(" tok ")
	if s.Token() != "tok" {
		t.Fatalf("token = %q, want trimmed", s.Token())
	}
	s.SetClient(order.Client{ID: ident.Int(1)})
	s.Select(order.KindPaybox, ident.Int(7))

	s.ResetOrder()

	if _, ok := s.Client(); ok {
		t.Error("client should be cleared")
	}
	if _, ok := s.Selection(order.KindPaybox); ok {
		t.Error("selections should be cleared")
	}
	if s.Token() != "tok" {
		t.Error("credential must be retained")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	s := New("tok")
	s.SetClient(order.Client{ID: ident.Int(1)})
	s.Logout()
	if s.Token() != "" {
		t.Error("logout must drop the credential")
	}
	if _, ok := s.Client(); ok {
		t.Error("logout must drop the client")
	}
}

func TestSetClientReplacesWholesale(t *testing.T) {
	s := New("tok")
	s.SetClient(order.Client{ID: ident.Int(1), Name: "First"})
	s.SetClient(order.Client{ID: ident.Int(2), Name: "Second"})
	c, ok := s.Client()
	if !ok || !c.ID.Equal(ident.Int(2)) {
		t.Fatalf("client = %+v", c)
	}
}
