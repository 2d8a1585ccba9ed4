package engine

import (
	"sort"
	"sync"
	"time"

	formflow "github.com/goliatone/go-formflow"
)

// Pending describes an issued request still waiting for its completion.
type Pending struct {
	ID       string
	Origin   formflow.Kind
	FieldID  string
	Method   string
	URL      string
	IssuedAt time.Time
}

type pendingTable struct {
	mu   sync.Mutex
	byID map[string]Pending
}

func newPendingTable() *pendingTable {
	return &pendingTable{byID: make(map[string]Pending)}
}

func (t *pendingTable) add(p Pending) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[p.ID] = p
}

func (t *pendingTable) retire(id string) (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byID[id]
	if ok {
		delete(t.byID, id)
	}
	return p, ok
}

func (t *pendingTable) list() []Pending {
	t.mu.Lock()
	out := make([]Pending, 0, len(t.byID))
	for _, p := range t.byID {
		out = append(out, p)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.Before(out[j].IssuedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
