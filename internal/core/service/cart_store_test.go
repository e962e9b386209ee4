package service

import (
	"context"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/shopy/internal/core/async"
	"github.com/rl1809/shopy/internal/core/domain"
)

var (
	tomatoes = domain.CartLine{ProductID: "1", ProductName: "Fresh Tomatoes", UnitPrice: 50, Quantity: 2, ShopName: "Fresh Mart Grocery"}
	tshirt   = domain.CartLine{ProductID: "2", ProductName: "Cotton T-Shirt", UnitPrice: 299, Quantity: 1, ShopName: "Style Hub Fashion"}
)

func newTestStore(repo *mockOrderRepo) *CartOrderStore {
	return NewCartOrderStore("acct-1", repo, WithClock(fixedClock()))
}

func TestAddLine_MergesSameProduct(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})

	require.NoError(t, store.AddLine(tomatoes))
	more := tomatoes
	more.Quantity = 3
	require.NoError(t, store.AddLine(more))

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddLine_DefaultsToOneUnit(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})

	line := tshirt
	line.Quantity = 0
	require.NoError(t, store.AddLine(line))

	assert.Equal(t, 1, store.Lines()[0].Quantity)
}

func TestAddLine_Rejects(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})

	bad := tomatoes
	bad.Quantity = -1
	assert.ErrorIs(t, store.AddLine(bad), ErrInvalidQuantity)

	bad = tomatoes
	bad.ProductID = ""
	assert.ErrorIs(t, store.AddLine(bad), ErrInvalidLine)

	bad = tomatoes
	bad.UnitPrice = -5
	assert.ErrorIs(t, store.AddLine(bad), ErrInvalidLine)

	assert.Empty(t, store.Lines())
}

func TestRemoveLine(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})
	require.NoError(t, store.AddLine(tomatoes))
	require.NoError(t, store.AddLine(tshirt))

	store.RemoveLine("missing")
	assert.Len(t, store.Lines(), 2)

	store.RemoveLine(tomatoes.ProductID)
	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, tshirt.ProductID, lines[0].ProductID)
}

func TestClear(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})
	require.NoError(t, store.AddLine(tomatoes))

	store.Clear()
	assert.Empty(t, store.Lines())
	assert.Zero(t, store.ComputeTotal())
}

func TestComputeTotal_Example(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})
	assert.Zero(t, store.ComputeTotal())

	require.NoError(t, store.AddLine(tomatoes))
	require.NoError(t, store.AddLine(tshirt))
	assert.EqualValues(t, 399, store.ComputeTotal())
}

func TestComputeTotal_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 50; run++ {
		store := newTestStore(&mockOrderRepo{})
		expected := map[string]domain.CartLine{}

		for step := 0; step < 40; step++ {
			n := rng.Intn(6)
			id := strconv.Itoa(n)
			if rng.Intn(3) == 0 {
				store.RemoveLine(id)
				delete(expected, id)
				continue
			}

			line := domain.CartLine{ProductID: id, UnitPrice: int64(10*n + 5), Quantity: 1 + rng.Intn(4)}
			if prev, ok := expected[id]; ok {
				prev.Quantity += line.Quantity
				expected[id] = prev
			} else {
				expected[id] = line
			}
			require.NoError(t, store.AddLine(line))
		}

		var want int64
		for _, l := range expected {
			want += l.UnitPrice * int64(l.Quantity)
		}
		assert.Equal(t, want, store.ComputeTotal())
		assert.Len(t, store.Lines(), len(expected))
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := &mockOrderRepo{}
	store := newTestStore(repo)

	_, err := store.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCart)

	orders, _ := store.ListOrders(context.Background())
	assert.Empty(t, orders)
	assert.Empty(t, store.Lines())
}

func TestPlaceOrder_Success(t *testing.T) {
	repo := &mockOrderRepo{}
	var hooked []domain.Order
	store := NewCartOrderStore("acct-1", repo,
		WithClock(fixedClock()),
		WithOrderIDs(func() string { return "ORD001" }),
		WithPlacedHook(func(o domain.Order) { hooked = append(hooked, o) }),
	)
	require.NoError(t, store.AddLine(tomatoes))
	require.NoError(t, store.AddLine(tshirt))
	before := store.ComputeTotal()

	order, err := store.PlaceOrder(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ORD001", order.ID)
	assert.Equal(t, before, order.Total)
	assert.EqualValues(t, 399, order.Total)
	assert.True(t, order.Consistent())
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	require.Len(t, order.Timeline, 1)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Timeline[0].Status)
	assert.True(t, order.Timeline[0].Completed)
	assert.Equal(t, "Fresh Mart Grocery, Style Hub Fashion", order.ShopName)
	assert.Equal(t, "2024-01-20", order.OrderDate())

	assert.Empty(t, store.Lines())
	orders, err := store.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Len(t, hooked, 1)
}

func TestPlaceOrder_RepositoryFailureKeepsCart(t *testing.T) {
	repo := &mockOrderRepo{err: errStorageDown}
	store := newTestStore(repo)
	require.NoError(t, store.AddLine(tomatoes))

	_, err := store.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, errStorageDown)
	assert.Len(t, store.Lines(), 1)
}

func TestListOrders_MostRecentFirst(t *testing.T) {
	repo := &mockOrderRepo{}
	n := 0
	store := NewCartOrderStore("acct-1", repo, WithOrderIDs(func() string {
		n++
		return "ORD" + strconv.Itoa(n)
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AddLine(tomatoes))
		_, err := store.PlaceOrder(context.Background())
		require.NoError(t, err)
	}

	orders, err := store.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "ORD3", orders[0].ID)
	assert.Equal(t, "ORD1", orders[2].ID)
}

func TestPlaceOrderAsync(t *testing.T) {
	repo := &mockOrderRepo{}
	store := newTestStore(repo)

	_, err := store.PlaceOrderAsync(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, store.AddLine(tomatoes))
	task, err := store.PlaceOrderAsync(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)

	order, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 100, order.Total)
	assert.Empty(t, store.Lines())
}

func TestPlaceOrderAsync_Cancelled(t *testing.T) {
	repo := &mockOrderRepo{}
	store := newTestStore(repo)
	require.NoError(t, store.AddLine(tomatoes))

	task, err := store.PlaceOrderAsync(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, task.Cancel())

	_, err = task.Wait(context.Background())
	assert.ErrorIs(t, err, async.ErrCancelled)
	assert.Len(t, store.Lines(), 1)
	orders, _ := store.ListOrders(context.Background())
	assert.Empty(t, orders)
}

func TestLineFromProduct(t *testing.T) {
	line := LineFromProduct(domain.Product{ID: "p", Name: "Fresh Milk", Price: 25, ImageRef: "/milk.svg"}, "Fresh Mart Grocery", 2)
	assert.Equal(t, domain.CartLine{
		ProductID: "p", ProductName: "Fresh Milk", UnitPrice: 25, Quantity: 2,
		ShopName: "Fresh Mart Grocery", ImageRef: "/milk.svg",
	}, line)
}

func TestAddLines_AllOrNothing(t *testing.T) {
	store := newTestStore(&mockOrderRepo{})
	require.NoError(t, store.AddLine(tshirt))

	err := store.AddLines(tomatoes, domain.CartLine{ProductID: "9", UnitPrice: 10, Quantity: -1})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, []domain.CartLine{tshirt}, store.Lines())

	require.NoError(t, store.AddLines(tomatoes, domain.CartLine{ProductID: "2", UnitPrice: 299}))
	lines := store.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, tomatoes, lines[1])
}
