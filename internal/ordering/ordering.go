// Package ordering keeps the items of one plan densely numbered 1..N.
//
// Every operation works through a Store that is already scoped to a single
// plan and runs inside that plan's transaction. The engine never commits: if
// any step fails the caller's transaction is rolled back and nothing of the
// operation becomes visible.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"athlos/fitness-tracker/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unbounded is the upper bound of a shift range that runs to the end of the plan.
const Unbounded = math.MaxInt32

var (
	ErrInvalidPosition = errors.New("position out of range")
	ErrNotDense        = errors.New("plan item positions are not dense")
)

// Store is the per-plan view the engine mutates.
type Store interface {
	// Count returns the number of items in the plan.
	Count(ctx context.Context) (int, error)
	// ShiftRange adds delta to the position of every item whose position is in
	// [lo, hi], skipping exclude (NilObjectID skips nothing). It returns the
	// number of items moved.
	ShiftRange(ctx context.Context, lo, hi, delta int, exclude primitive.ObjectID) (int, error)
	Insert(ctx context.Context, item *domain.PlanItem) error
	SetPosition(ctx context.Context, itemID primitive.ObjectID, position int) error
	Delete(ctx context.Context, itemID primitive.ObjectID) error
}

// ListStore is a Store that can also list the plan's items by position.
type ListStore interface {
	Store
	List(ctx context.Context) ([]domain.PlanItem, error)
}

// Result describes an applied operation.
type Result struct {
	Position int // final position of the inserted or moved item, or the freed slot on remove
	Shifted  int // number of other items renumbered
}

// Insert places item at desired, or appends it when desired is nil.
// Items at or after the target slot move up by one. The item's Position is set.
func Insert(ctx context.Context, s Store, item *domain.PlanItem, desired *int) (Result, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count items: %w", err)
	}

	res := Result{Position: n + 1}
	if desired != nil {
		p := *desired
		if p < 1 || p > n+1 {
			return Result{}, fmt.Errorf("%w: insert at %d, plan has %d items", ErrInvalidPosition, p, n)
		}
		if p <= n {
			res.Shifted, err = s.ShiftRange(ctx, p, n, 1, primitive.NilObjectID)
			if err != nil {
				return Result{}, fmt.Errorf("shift items [%d, %d]: %w", p, n, err)
			}
		}
		res.Position = p
	}

	item.Position = res.Position
	if err := s.Insert(ctx, item); err != nil {
		return Result{}, fmt.Errorf("insert item: %w", err)
	}
	return res, nil
}

// Reposition moves item to newPos. Only the items strictly between the old and
// the new slot are renumbered, so exactly |newPos - old| other items move.
func Reposition(ctx context.Context, s Store, item *domain.PlanItem, newPos int) (Result, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count items: %w", err)
	}
	if newPos < 1 || newPos > n {
		return Result{}, fmt.Errorf("%w: move to %d, plan has %d items", ErrInvalidPosition, newPos, n)
	}

	old := item.Position
	if newPos == old {
		return Result{Position: old}, nil
	}

	var shifted int
	if newPos < old {
		shifted, err = s.ShiftRange(ctx, newPos, old-1, 1, item.ID)
	} else {
		shifted, err = s.ShiftRange(ctx, old+1, newPos, -1, item.ID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("shift items between %d and %d: %w", old, newPos, err)
	}

	if err := s.SetPosition(ctx, item.ID, newPos); err != nil {
		return Result{}, fmt.Errorf("set position: %w", err)
	}
	item.Position = newPos
	return Result{Position: newPos, Shifted: shifted}, nil
}

// Remove deletes item and closes the gap it leaves behind.
func Remove(ctx context.Context, s Store, item *domain.PlanItem) (Result, error) {
	if err := s.Delete(ctx, item.ID); err != nil {
		return Result{}, fmt.Errorf("delete item: %w", err)
	}
	shifted, err := s.ShiftRange(ctx, item.Position+1, Unbounded, -1, primitive.NilObjectID)
	if err != nil {
		return Result{}, fmt.Errorf("compact after %d: %w", item.Position, err)
	}
	return Result{Position: item.Position, Shifted: shifted}, nil
}

// Renumber rewrites positions to 1..N keeping the current relative order.
// Ties are broken by creation time, then id. It is a repair tool for plans
// whose positions were damaged outside the engine.
func Renumber(ctx context.Context, s ListStore) (Result, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list items: %w", err)
	}
	sortItems(items)

	var res Result
	for i := range items {
		want := i + 1
		if items[i].Position == want {
			continue
		}
		if err := s.SetPosition(ctx, items[i].ID, want); err != nil {
			return Result{}, fmt.Errorf("set position of %s: %w", items[i].ID.Hex(), err)
		}
		res.Shifted++
	}
	res.Position = len(items)
	return res, nil
}

// Verify checks that the positions of items are exactly {1..len(items)}.
func Verify(items []domain.PlanItem) error {
	seen := make([]bool, len(items)+1)
	for _, it := range items {
		p := it.Position
		if p < 1 || p > len(items) {
			return fmt.Errorf("%w: item %s at %d, plan has %d items", ErrNotDense, it.ID.Hex(), p, len(items))
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate position %d", ErrNotDense, p)
		}
		seen[p] = true
	}
	return nil
}

// Sort orders items by position in place.
func Sort(items []domain.PlanItem) {
	sortItems(items)
}

func sortItems(items []domain.PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}
