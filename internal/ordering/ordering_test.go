package ordering

import (
	"context"
	"errors"
	"testing"
	"time"

	"athlos/fitness-tracker/internal/domain"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errShiftFailed = errors.New("shift failed")

// sliceStore is a plan held in memory, without transactions.
type sliceStore struct {
	items     []domain.PlanItem
	failShift bool
}

func (s *sliceStore) Count(_ context.Context) (int, error) {
	return len(s.items), nil
}

func (s *sliceStore) ShiftRange(_ context.Context, lo, hi, delta int, exclude primitive.ObjectID) (int, error) {
	if s.failShift {
		return 0, errShiftFailed
	}
	moved := 0
	for i := range s.items {
		it := &s.items[i]
		if it.ID == exclude || it.Position < lo || it.Position > hi {
			continue
		}
		it.Position += delta
		moved++
	}
	return moved, nil
}

func (s *sliceStore) Insert(_ context.Context, item *domain.PlanItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *sliceStore) SetPosition(_ context.Context, itemID primitive.ObjectID, position int) error {
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Position = position
			return nil
		}
	}
	return errors.New("not found")
}

func (s *sliceStore) Delete(_ context.Context, itemID primitive.ObjectID) error {
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (s *sliceStore) List(_ context.Context) ([]domain.PlanItem, error) {
	out := make([]domain.PlanItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *sliceStore) get(t *testing.T, id primitive.ObjectID) *domain.PlanItem {
	t.Helper()
	for i := range s.items {
		if s.items[i].ID == id {
			it := s.items[i]
			return &it
		}
	}
	t.Fatalf("item %s not in store", id.Hex())
	return nil
}

func (s *sliceStore) positions() map[string]int {
	out := make(map[string]int, len(s.items))
	for _, it := range s.items {
		out[it.Notes] = it.Position
	}
	return out
}

// newStore builds a plan whose items are named by notes, at positions 1..N.
func newStore(names ...string) *sliceStore {
	s := &sliceStore{}
	for i, n := range names {
		s.items = append(s.items, domain.PlanItem{
			ID:       primitive.NewObjectID(),
			Notes:    n,
			Position: i + 1,
		})
	}
	return s
}

func (s *sliceStore) byName(t *testing.T, name string) *domain.PlanItem {
	t.Helper()
	for i := range s.items {
		if s.items[i].Notes == name {
			it := s.items[i]
			return &it
		}
	}
	t.Fatalf("item %q not in store", name)
	return nil
}

func intPtr(i int) *int { return &i }

func TestInsert_EmptyPlanAppends(t *testing.T) {
	s := newStore()
	item := &domain.PlanItem{Notes: "X"}

	res, err := Insert(context.Background(), s, item, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Position)
	assert.Equal(t, 0, res.Shifted)
	assert.Equal(t, 1, item.Position)
	require.NoError(t, Verify(s.items))
}

func TestInsert_AppendWithoutPosition(t *testing.T) {
	s := newStore("A", "B", "C", "D", "E")

	res, err := Insert(context.Background(), s, &domain.PlanItem{Notes: "X"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Position)
	assert.Equal(t, 0, res.Shifted)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "X": 6}, s.positions())
}

func TestInsert_AtPosition(t *testing.T) {
	s := newStore("A", "B", "C")

	res, err := Insert(context.Background(), s, &domain.PlanItem{Notes: "X"}, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Position)
	assert.Equal(t, 2, res.Shifted)
	assert.Equal(t, map[string]int{"A": 1, "X": 2, "B": 3, "C": 4}, s.positions())
	require.NoError(t, Verify(s.items))
}

func TestInsert_AtEndSlotShiftsNothing(t *testing.T) {
	s := newStore("A", "B", "C")

	res, err := Insert(context.Background(), s, &domain.PlanItem{Notes: "X"}, intPtr(4))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Position)
	assert.Equal(t, 0, res.Shifted)
	require.NoError(t, Verify(s.items))
}

func TestInsert_OutOfRange(t *testing.T) {
	for _, p := range []int{-1, 0, 5, 100} {
		s := newStore("A", "B", "C")
		_, err := Insert(context.Background(), s, &domain.PlanItem{Notes: "X"}, intPtr(p))
		require.ErrorIs(t, err, ErrInvalidPosition, "position %d", p)
		assert.Len(t, s.items, 3)
		assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, s.positions())
	}
}

func TestInsert_ShiftFailureDoesNotInsert(t *testing.T) {
	s := newStore("A", "B")
	s.failShift = true

	_, err := Insert(context.Background(), s, &domain.PlanItem{Notes: "X"}, intPtr(1))
	require.ErrorIs(t, err, errShiftFailed)
	assert.Len(t, s.items, 2)
}

func TestReposition_MoveUp(t *testing.T) {
	s := newStore("A", "B", "C", "D")
	c := s.byName(t, "C")

	res, err := Reposition(context.Background(), s, c, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Position)
	assert.Equal(t, 2, res.Shifted)
	assert.Equal(t, 1, c.Position)
	assert.Equal(t, map[string]int{"A": 2, "B": 3, "C": 1, "D": 4}, s.positions())
}

func TestReposition_MoveDown(t *testing.T) {
	s := newStore("A", "B", "C", "D")
	a := s.byName(t, "A")

	res, err := Reposition(context.Background(), s, a, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Shifted)
	assert.Equal(t, map[string]int{"B": 1, "C": 2, "A": 3, "D": 4}, s.positions())
}

func TestReposition_NoOp(t *testing.T) {
	s := newStore("A", "B", "C")
	b := s.byName(t, "B")

	res, err := Reposition(context.Background(), s, b, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Shifted)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, s.positions())
}

func TestReposition_OutOfRange(t *testing.T) {
	for _, p := range []int{0, 4, -3} {
		s := newStore("A", "B", "C")
		b := s.byName(t, "B")
		_, err := Reposition(context.Background(), s, b, p)
		require.ErrorIs(t, err, ErrInvalidPosition, "position %d", p)
		assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, s.positions())
	}
}

func TestRemove_Compacts(t *testing.T) {
	s := newStore("A", "B", "C", "D")
	b := s.byName(t, "B")

	res, err := Remove(context.Background(), s, b)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Position)
	assert.Equal(t, 2, res.Shifted)
	assert.Equal(t, map[string]int{"A": 1, "C": 2, "D": 3}, s.positions())
}

func TestRemove_LastItem(t *testing.T) {
	s := newStore("A", "B")
	b := s.byName(t, "B")

	res, err := Remove(context.Background(), s, b)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Shifted)
	assert.Equal(t, map[string]int{"A": 1}, s.positions())
}

func TestRenumber(t *testing.T) {
	now := time.Now()
	s := &sliceStore{items: []domain.PlanItem{
		{ID: primitive.NewObjectID(), Notes: "B", Position: 4, CreatedAt: now},
		{ID: primitive.NewObjectID(), Notes: "A", Position: 2, CreatedAt: now},
		{ID: primitive.NewObjectID(), Notes: "C", Position: 4, CreatedAt: now.Add(time.Second)},
		{ID: primitive.NewObjectID(), Notes: "D", Position: 9, CreatedAt: now},
	}}
	require.ErrorIs(t, Verify(s.items), ErrNotDense)

	res, err := Renumber(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Shifted)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}, s.positions())
	require.NoError(t, Verify(s.items))

	res, err = Renumber(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Shifted)
}

func TestVerify(t *testing.T) {
	require.NoError(t, Verify(nil))
	require.NoError(t, Verify(newStore("A", "B", "C").items))

	gap := newStore("A", "B")
	gap.items[1].Position = 3
	assert.ErrorIs(t, Verify(gap.items), ErrNotDense)

	dup := newStore("A", "B")
	dup.items[1].Position = 1
	assert.ErrorIs(t, Verify(dup.items), ErrNotDense)
}

// TestRandomOperations drives the engine against a reference ordering and
// checks density, relative order and the shift counts after every step.
func TestRandomOperations(t *testing.T) {
	faker := gofakeit.New(20251019)
	ctx := context.Background()
	s := newStore()
	var model []primitive.ObjectID // ids in position order

	for step := 0; step < 500; step++ {
		n := len(model)
		switch op := faker.Number(0, 2); {
		case op == 0 || n == 0:
			item := &domain.PlanItem{ID: primitive.NewObjectID(), Notes: faker.Word()}
			var desired *int
			if faker.Bool() {
				desired = intPtr(faker.Number(1, n+1))
			}
			res, err := Insert(ctx, s, item, desired)
			require.NoError(t, err)
			if desired == nil {
				require.Equal(t, n+1, res.Position, "append policy")
			} else {
				require.Equal(t, n-*desired+1, res.Shifted)
			}
			at := res.Position - 1
			model = append(model[:at], append([]primitive.ObjectID{item.ID}, model[at:]...)...)
		case op == 1:
			from := faker.Number(0, n-1)
			to := faker.Number(1, n)
			item := s.get(t, model[from])
			res, err := Reposition(ctx, s, item, to)
			require.NoError(t, err)
			require.Equal(t, abs(to-(from+1)), res.Shifted, "minimal shift")
			id := model[from]
			model = append(model[:from], model[from+1:]...)
			model = append(model[:to-1], append([]primitive.ObjectID{id}, model[to-1:]...)...)
		default:
			at := faker.Number(0, n-1)
			item := s.get(t, model[at])
			res, err := Remove(ctx, s, item)
			require.NoError(t, err)
			require.Equal(t, n-(at+1), res.Shifted)
			model = append(model[:at], model[at+1:]...)
		}

		require.NoError(t, Verify(s.items), "step %d", step)
		require.Len(t, s.items, len(model))
		for i, id := range model {
			require.Equal(t, i+1, s.get(t, id).Position, "step %d", step)
		}
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
