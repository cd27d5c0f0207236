package ledger

import (
	"slices"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
)

// collection is an ordered, id-indexed list of one entity type
type collection[T domain.Entity] struct {
	items []T
	index map[string]int
}

func newCollection[T domain.Entity](items []T) collection[T] {
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.EntityID()] = i
	}
	return collection[T]{items: items, index: index}
}

func (c collection[T]) get(id string) (T, bool) {
	if i, ok := c.index[id]; ok {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c collection[T]) list() []T {
	return slices.Clone(c.items)
}

// convert keeps the entities of type T (or *T) and counts the rest
func convert[T domain.Entity](entities []domain.Entity) ([]T, int) {
	out := make([]T, 0, len(entities))
	skipped := 0
	for _, e := range entities {
		switch v := any(e).(type) {
		case T:
			out = append(out, v)
		case *T:
			if v == nil {
				skipped++
				continue
			}
			out = append(out, *v)
		default:
			skipped++
		}
	}
	return out, skipped
}

// Ledger is an immutable view of one user's five collections as of the last
// dispatch per collection. Collections update independently, so a Ledger may
// hold budgets newer than its transactions.
type Ledger struct {
	transactions collection[domain.Transaction]
	categories   collection[domain.Category]
	budgets      collection[domain.Budget]
	goals        collection[domain.Goal]
	savings      collection[domain.Saving]
	versions     map[domain.Collection]uint64
	syncedAt     map[domain.Collection]time.Time
}

// Empty returns a ledger that has received no snapshots
func Empty() *Ledger {
	return &Ledger{
		transactions: newCollection[domain.Transaction](nil),
		categories:   newCollection[domain.Category](nil),
		budgets:      newCollection[domain.Budget](nil),
		goals:        newCollection[domain.Goal](nil),
		savings:      newCollection[domain.Saving](nil),
		versions:     make(map[domain.Collection]uint64),
		syncedAt:     make(map[domain.Collection]time.Time),
	}
}

// FromSnapshots applies snapshots in order to an empty ledger
func FromSnapshots(snapshots ...domain.Snapshot) *Ledger {
	l := Empty()
	for _, snap := range snapshots {
		l, _ = l.apply(snap)
	}
	return l
}

// apply returns a copy of l with snap's collection replaced wholesale
func (l *Ledger) apply(snap domain.Snapshot) (*Ledger, int) {
	next := *l
	next.versions = make(map[domain.Collection]uint64, len(l.versions)+1)
	for k, v := range l.versions {
		next.versions[k] = v
	}
	next.syncedAt = make(map[domain.Collection]time.Time, len(l.syncedAt)+1)
	for k, v := range l.syncedAt {
		next.syncedAt[k] = v
	}

	var skipped int
	switch snap.Collection {
	case domain.CollectionTransactions:
		var items []domain.Transaction
		items, skipped = convert[domain.Transaction](snap.Entities)
		next.transactions = newCollection(items)
	case domain.CollectionCategories:
		var items []domain.Category
		items, skipped = convert[domain.Category](snap.Entities)
		next.categories = newCollection(items)
	case domain.CollectionBudgets:
		var items []domain.Budget
		items, skipped = convert[domain.Budget](snap.Entities)
		next.budgets = newCollection(items)
	case domain.CollectionGoals:
		var items []domain.Goal
		items, skipped = convert[domain.Goal](snap.Entities)
		next.goals = newCollection(items)
	case domain.CollectionSavings:
		var items []domain.Saving
		items, skipped = convert[domain.Saving](snap.Entities)
		next.savings = newCollection(items)
	default:
		return l, len(snap.Entities)
	}

	next.versions[snap.Collection]++
	syncedAt := snap.ReceivedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now().UTC()
	}
	next.syncedAt[snap.Collection] = syncedAt
	return &next, skipped
}

func (l *Ledger) Transactions() []domain.Transaction { return l.transactions.list() }
func (l *Ledger) Categories() []domain.Category      { return l.categories.list() }
func (l *Ledger) Budgets() []domain.Budget           { return l.budgets.list() }
func (l *Ledger) Goals() []domain.Goal               { return l.goals.list() }
func (l *Ledger) Savings() []domain.Saving           { return l.savings.list() }

func (l *Ledger) Transaction(id string) (domain.Transaction, bool) { return l.transactions.get(id) }
func (l *Ledger) Category(id string) (domain.Category, bool)       { return l.categories.get(id) }
func (l *Ledger) Budget(id string) (domain.Budget, bool)           { return l.budgets.get(id) }
func (l *Ledger) Goal(id string) (domain.Goal, bool)               { return l.goals.get(id) }
func (l *Ledger) Saving(id string) (domain.Saving, bool)           { return l.savings.get(id) }

// CategoryIndex indexes the current categories by id
func (l *Ledger) CategoryIndex() domain.CategoryIndex {
	return domain.NewCategoryIndex(l.categories.items)
}

// Lookup finds an entity of any collection by id
func (l *Ledger) Lookup(c domain.Collection, id string) (domain.Entity, bool) {
	switch c {
	case domain.CollectionTransactions:
		return lookup(l.transactions, id)
	case domain.CollectionCategories:
		return lookup(l.categories, id)
	case domain.CollectionBudgets:
		return lookup(l.budgets, id)
	case domain.CollectionGoals:
		return lookup(l.goals, id)
	case domain.CollectionSavings:
		return lookup(l.savings, id)
	}
	return nil, false
}

func lookup[T domain.Entity](c collection[T], id string) (domain.Entity, bool) {
	v, ok := c.get(id)
	if !ok {
		return nil, false
	}
	return v, true
}

// Count returns the number of entities in a collection
func (l *Ledger) Count(c domain.Collection) int {
	switch c {
	case domain.CollectionTransactions:
		return len(l.transactions.items)
	case domain.CollectionCategories:
		return len(l.categories.items)
	case domain.CollectionBudgets:
		return len(l.budgets.items)
	case domain.CollectionGoals:
		return len(l.goals.items)
	case domain.CollectionSavings:
		return len(l.savings.items)
	}
	return 0
}

// Version is the number of snapshots dispatched for a collection
func (l *Ledger) Version(c domain.Collection) uint64 {
	return l.versions[c]
}

// SyncedAt is when the last snapshot of a collection was received
func (l *Ledger) SyncedAt(c domain.Collection) time.Time {
	return l.syncedAt[c]
}

// Ready reports whether every collection has received at least one snapshot
func (l *Ledger) Ready() bool {
	for _, c := range domain.AllCollections {
		if l.versions[c] == 0 {
			return false
		}
	}
	return true
}
