package postgres

import (
	"context"
	"fmt"
)

// DeleteMode says how an entity leaves the store.
type DeleteMode int

const (
	// SoftDelete flags the row; default queries skip it but aggregations over
	// child rows keep working.
	SoftDelete DeleteMode = iota + 1
	// HardDelete removes the row.
	HardDelete
)

func (m DeleteMode) String() string {
	switch m {
	case SoftDelete:
		return "soft"
	case HardDelete:
		return "hard"
	}
	return "unknown"
}

// Entity names a persisted type for policy lookup.
type Entity string

const (
	EntityFlock   Entity = "flock"
	EntityBreed   Entity = "breed"
	EntityEggLog  Entity = "egg_log"
	EntityExpense Entity = "expense"
	EntityTask    Entity = "task"
)

// DeletePolicies is the single source of truth for delete semantics. Users
// and notifications have no entry and cannot be deleted through the store.
var DeletePolicies = map[Entity]DeleteMode{
	EntityFlock:   SoftDelete,
	EntityBreed:   SoftDelete,
	EntityEggLog:  HardDelete,
	EntityExpense: HardDelete,
	EntityTask:    HardDelete,
}

// deleteByPolicy removes rows of model matching the condition the way the
// entity's policy prescribes, returning the affected row count.
func (s *Store) deleteByPolicy(ctx context.Context, entity Entity, model any, query string, args ...any) (int64, error) {
	mode, ok := DeletePolicies[entity]
	if !ok {
		return 0, fmt.Errorf("no delete policy for %s", entity)
	}

	q := s.conn(ctx)
	if mode == HardDelete {
		q = q.Unscoped()
	}

	res := q.Where(query, args...).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("%s delete %s: %w", mode, entity, res.Error)
	}
	return res.RowsAffected, nil
}
