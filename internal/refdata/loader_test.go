package refdata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Danokray/Tablecrm/internal/domain/ident"
	"github.com/Danokray/Tablecrm/internal/domain/order"
)

type fakeGateway struct {
	mu       sync.Mutex
	lists    map[order.ReferenceKind][]order.ReferenceEntry
	failures map[order.ReferenceKind]error
	calls    []order.ReferenceKind
}

func (f *fakeGateway) ListReference(ctx context.Context, kind order.ReferenceKind) ([]order.ReferenceEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
	if err, ok := f.failures[kind]; ok {
		return nil, err
	}
	return f.lists[kind], nil
}

func entry(id int64, name string) order.ReferenceEntry {
	return order.ReferenceEntry{ID: ident.Int(id), Name: name}
}

func TestLoadAllKinds(t *testing.T) {
	gw := &fakeGateway{lists: map[order.ReferenceKind][]order.ReferenceEntry{
		order.KindPaybox:       {entry(1, "Cash")},
		order.KindOrganization: {entry(2, "LLC")},
		order.KindWarehouse:    {entry(3, "Main")},
		order.KindPriceType:    {entry(4, "Retail")},
	}}

	set, partial := Load(context.Background(), gw)
	if partial != nil {
		t.Fatalf("unexpected partial error: %v", partial)
	}
	if len(set) != 4 {
		t.Fatalf("set has %d kinds", len(set))
	}
	if len(gw.calls) != 4 {
		t.Fatalf("expected one call per kind, got %d", len(gw.calls))
	}
}

func TestLoadPartialFailureNamesKinds(t *testing.T) {
	gw := &fakeGateway{
		lists: map[order.ReferenceKind][]order.ReferenceEntry{
			order.KindOrganization: {entry(2, "LLC")},
			order.KindPriceType:    {entry(4, "Retail")},
		},
		failures: map[order.ReferenceKind]error{
			order.KindPaybox: errors.New("boom"),
			// warehouses simply return empty
		},
	}

	set, partial := Load(context.Background(), gw)
	if partial == nil {
		t.Fatal("expected a partial error")
	}
	if partial.AllMissing() {
		t.Fatal("two kinds loaded; AllMissing must be false")
	}
	advisory := partial.Advisory()
	if !strings.Contains(advisory, "payment accounts") || !strings.Contains(advisory, "warehouses") {
		t.Errorf("advisory %q should name the missing kinds", advisory)
	}
	if strings.Contains(advisory, "organizations") || strings.Contains(advisory, "price types") {
		t.Errorf("advisory %q names kinds that loaded", advisory)
	}
	if len(set[order.KindOrganization]) != 1 {
		t.Error("loaded kinds must survive a partial failure")
	}
}

func TestLoadAllMissing(t *testing.T) {
	gw := &fakeGateway{failures: map[order.ReferenceKind]error{
		order.KindPaybox:       errors.New("x"),
		order.KindOrganization: errors.New("x"),
		order.KindWarehouse:    errors.New("x"),
		order.KindPriceType:    errors.New("x"),
	}}

	_, partial := Load(context.Background(), gw)
	if partial == nil || !partial.AllMissing() {
		t.Fatalf("partial = %v, want all missing", partial)
	}
	if !strings.Contains(partial.Advisory(), "check the token") {
		t.Errorf("advisory = %q", partial.Advisory())
	}
}

func TestLoadSubset(t *testing.T) {
	gw := &fakeGateway{lists: map[order.ReferenceKind][]order.ReferenceEntry{
		order.KindWarehouse: {entry(3, "Main")},
	}}

	set, partial := Load(context.Background(), gw, order.KindWarehouse)
	if partial != nil {
		t.Fatalf("unexpected partial: %v", partial)
	}
	if len(set) != 1 || len(gw.calls) != 1 {
		t.Fatalf("subset load touched extra kinds: %v", gw.calls)
	}
}
