// Package refdata loads the four reference dimensions as a single
// concurrent batch at session start. The batch never fails atomically:
// a kind that errors collapses to an empty list and is reported in an
// aggregate advisory naming exactly the missing kinds.
package refdata

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Danokray/Tablecrm/internal/domain/order"
)

// Gateway is the slice of the API client the loader needs.
type Gateway interface {
	ListReference(ctx context.Context, kind order.ReferenceKind) ([]order.ReferenceEntry, error)
}

// Set holds the loaded lists keyed by kind.
type Set map[order.ReferenceKind][]order.ReferenceEntry

// PartialError reports the kinds that came back empty or failed.
type PartialError struct {
	Missing   []order.ReferenceKind
	Requested int
}

// Error implements error.
func (e *PartialError) Error() string {
	return "refdata: " + e.Advisory()
}

// AllMissing reports whether no kind loaded at all.
func (e *PartialError) AllMissing() bool {
	return len(e.Missing) == e.Requested
}

// Advisory returns the aggregate user-visible message.
func (e *PartialError) Advisory() string {
	if e.AllMissing() {
		return "failed to load reference data, check the token and try again"
	}
	labels := make([]string, len(e.Missing))
	for i, kind := range e.Missing {
		labels[i] = kind.Label()
	}
	return fmt.Sprintf("failed to load: %s", strings.Join(labels, ", "))
}

// Load fetches all requested kinds concurrently, one request per kind.
// Per-kind failures are logged into the returned PartialError rather
// than aborting the batch; the Set always contains an entry (possibly
// empty) for every requested kind. A nil PartialError means every kind
// returned at least one entry.
func Load(ctx context.Context, gw Gateway, kinds ...order.ReferenceKind) (Set, *PartialError) {
	if len(kinds) == 0 {
		kinds = order.Kinds()
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		set = make(Set, len(kinds))
	)
	for _, kind := range kinds {
		wg.Add(1)
		go func(kind order.ReferenceKind) {
			defer wg.Done()
			entries, err := gw.ListReference(ctx, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				set[kind] = nil
				return
			}
			set[kind] = entries
		}(kind)
	}
	wg.Wait()

	var missing []order.ReferenceKind
	for _, kind := range kinds {
		if len(set[kind]) == 0 {
			missing = append(missing, kind)
		}
	}
	if len(missing) == 0 {
		return set, nil
	}
	return set, &PartialError{Missing: missing, Requested: len(kinds)}
}
