package cart

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func product(id int, price string) models.Product {
	return models.Product{
		ID:          id,
		Title:       "product",
		Price:       decimal.RequireFromString(price),
		Description: "description",
		Category:    models.Category{ID: 1, Name: "Clothes", Image: "https://i.imgur.com/c.jpg"},
	}
}

// quantities maps product id to quantity, in line order.
func quantities(snap models.Snapshot) [][2]int {
	out := make([][2]int, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		out = append(out, [2]int{l.Product.ID, l.Quantity})
	}
	return out
}

func assertInvariants(t *testing.T, snap models.Snapshot) {
	t.Helper()
	seen := map[int]bool{}
	sum := 0
	for _, l := range snap.Lines {
		assert.Positive(t, l.Quantity, "line %d has non-positive quantity", l.Product.ID)
		assert.False(t, seen[l.Product.ID], "duplicate line for %d", l.Product.ID)
		seen[l.Product.ID] = true
		sum += l.Quantity
	}
	assert.Equal(t, sum, snap.Count)
}

func TestStoreScenario(t *testing.T) {
	s := NewStore()
	a := product(1, "9.99")
	b := product(2, "5.00")

	s.Add(a)
	s.Add(a)
	snap, changed := s.Add(b)
	assert.True(t, changed)

	assert.Equal(t, [][2]int{{1, 2}, {2, 1}}, quantities(snap))
	assert.Equal(t, 3, snap.Count)
	assert.True(t, decimal.RequireFromString("24.98").Equal(Subtotal(snap)), "subtotal %s", Subtotal(snap))

	snap, _ = s.RemoveOne(a.ID)
	assert.Equal(t, [][2]int{{1, 1}, {2, 1}}, quantities(snap))
	assert.Equal(t, 2, snap.Count)

	snap, _ = s.DeleteLine(b.ID)
	assert.Equal(t, [][2]int{{1, 1}}, quantities(snap))
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, s.Len())
}

func TestStoreAddCounts(t *testing.T) {
	tests := []struct {
		name     string
		adds     []int
		want     [][2]int
		wantLen  int
		wantUnit int
	}{
		{
			name: "empty",
			adds: nil,
			want: [][2]int{},
		},
		{
			name:     "single id repeated",
			adds:     []int{7, 7, 7, 7},
			want:     [][2]int{{7, 4}},
			wantLen:  1,
			wantUnit: 4,
		},
		{
			name:     "interleaved ids keep first-add order",
			adds:     []int{3, 1, 3, 2, 1, 3},
			want:     [][2]int{{3, 3}, {1, 2}, {2, 1}},
			wantLen:  3,
			wantUnit: 6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			for _, id := range tt.adds {
				s.Add(product(id, "1"))
			}
			snap := s.Snapshot()
			assert.Equal(t, tt.want, quantities(snap))
			assert.Equal(t, tt.wantLen, s.Len())
			assert.Equal(t, tt.wantUnit, s.Count())
			assertInvariants(t, snap)
		})
	}
}

func TestStoreAddKeepsFirstSnapshot(t *testing.T) {
	s := NewStore()
	first := product(1, "9.99")
	first.Images = []string{"https://i.imgur.com/a.jpg"}
	s.Add(first)

	later := product(1, "12.50")
	later.Title = "renamed"
	snap, _ := s.Add(later)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "product", snap.Lines[0].Product.Title)
	assert.True(t, snap.Lines[0].Product.Price.Equal(first.Price))
	assert.Equal(t, 2, snap.Lines[0].Quantity)

	// the caller's slice must not alias stored state
	first.Images[0] = "mutated"
	assert.Equal(t, "https://i.imgur.com/a.jpg", s.Snapshot().Lines[0].Product.Images[0])
}

func TestStoreAddThenRemoveOneRestoresState(t *testing.T) {
	s := NewStore()
	s.Add(product(1, "2"))
	s.Add(product(2, "3"))
	s.Add(product(2, "3"))

	for _, id := range []int{1, 2, 9} {
		before := s.Snapshot()
		s.Add(product(id, "4"))
		after, _ := s.RemoveOne(id)
		if diff := cmp.Diff(before, after); diff != "" {
			t.Errorf("add+removeOne(%d) changed state (-before +after):\n%s", id, diff)
		}
	}
}

func TestStoreRemoveOne(t *testing.T) {
	s := NewStore()
	s.Add(product(1, "1"))
	s.Add(product(1, "1"))

	snap, changed := s.RemoveOne(1)
	assert.True(t, changed)
	assert.Equal(t, [][2]int{{1, 1}}, quantities(snap))

	snap, changed = s.RemoveOne(1)
	assert.True(t, changed)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Count)

	snap, changed = s.RemoveOne(1)
	assert.False(t, changed)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Count)
}

func TestStoreDeleteLine(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.Add(product(4, "1"))
	}
	s.Add(product(5, "1"))

	snap, changed := s.DeleteLine(4)
	assert.True(t, changed)
	assert.Equal(t, [][2]int{{5, 1}}, quantities(snap))
	assert.Equal(t, 1, snap.Count)
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.Add(product(1, "1"))
	s.Add(product(2, "1"))
	s.Add(product(2, "1"))

	snap, changed := s.Clear()
	assert.True(t, changed)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Count)

	snap, changed = s.Clear()
	assert.False(t, changed)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Count)
}

func TestStoreUnknownIDsAreNoops(t *testing.T) {
	s := NewStore()
	calls := 0
	unsubscribe := s.Subscribe(func(models.Snapshot) { calls++ })
	defer unsubscribe()

	for _, id := range []int{999, -1, 0} {
		snap, changed := s.RemoveOne(id)
		assert.False(t, changed)
		assert.Equal(t, models.Snapshot{Lines: []models.CartLine{}}, snap)
		snap, changed = s.DeleteLine(id)
		assert.False(t, changed)
		assert.Equal(t, models.Snapshot{Lines: []models.CartLine{}}, snap)
	}
	assert.Zero(t, calls)
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	var got []int
	unsubscribe := s.Subscribe(func(snap models.Snapshot) {
		got = append(got, snap.Count)
		// reads from inside an observer are allowed
		assert.Equal(t, snap.Count, s.Count())
	})

	s.Add(product(1, "1"))
	s.Add(product(1, "1"))
	s.RemoveOne(1)
	s.RemoveOne(42)
	s.DeleteLine(1)

	unsubscribe()
	unsubscribe()
	s.Add(product(1, "1"))

	assert.Equal(t, []int{1, 2, 1, 0}, got)
}

func TestStoreSnapshotIsImmutable(t *testing.T) {
	s := NewStore()
	snap, _ := s.Add(product(1, "1"))
	snap.Lines[0].Quantity = 100
	snap.Lines[0].Product.Title = "changed"

	fresh := s.Snapshot()
	assert.Equal(t, 1, fresh.Lines[0].Quantity)
	assert.Equal(t, "product", fresh.Lines[0].Product.Title)
}

func TestStoreRestore(t *testing.T) {
	s := NewStore()
	s.Add(product(9, "1"))

	s.Restore([]models.CartLine{
		{Product: product(1, "2"), Quantity: 2},
		{Product: product(2, "3"), Quantity: 0},
		{Product: product(1, "2"), Quantity: 3},
		{Product: product(3, "4"), Quantity: -4},
		{Product: product(4, "5"), Quantity: 1},
	})

	snap := s.Snapshot()
	assert.Equal(t, [][2]int{{1, 5}, {4, 1}}, quantities(snap))
	assertInvariants(t, snap)
}

func TestStoreClose(t *testing.T) {
	s := NewStore()
	s.Add(product(1, "1"))
	calls := 0
	s.Subscribe(func(models.Snapshot) { calls++ })

	s.Close()
	assert.True(t, s.Closed())

	snap, changed := s.Add(product(2, "1"))
	assert.False(t, changed)
	assert.Equal(t, [][2]int{{1, 1}}, quantities(snap))
	s.Clear()
	s.Restore(nil)
	assert.Equal(t, 1, s.Count())
	assert.Zero(t, calls)

	s.Subscribe(func(models.Snapshot) { calls++ })()
}

func TestStoreConcurrentMutations(t *testing.T) {
	s := NewStore()
	var observed []int
	var mu sync.Mutex
	s.Subscribe(func(snap models.Snapshot) {
		mu.Lock()
		observed = append(observed, snap.Count)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Add(product(w*100+i%5, "1"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, s.Count())
	assert.Equal(t, 40, s.Len())
	assertInvariants(t, s.Snapshot())

	// every add notifies once and counts are delivered in mutation order
	require.Len(t, observed, 400)
	for i, c := range observed {
		assert.Equal(t, i+1, c)
	}
}
