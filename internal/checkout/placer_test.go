package checkout

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MikeMC777/storefront/internal/inventory"
	"github.com/MikeMC777/storefront/internal/money"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
)

type cartKey struct{ user, product int64 }

// memState is the data a memUoW session works on. Sessions get a copy and
// a successful Do swaps it in, which gives all-or-nothing commits.
type memState struct {
	stock  map[int64]int
	prices map[int64]money.Money
	cart   map[cartKey]int
	orders map[int64]order.Order
	items  []order.Item
	nextID int64
}

func newMemState() *memState {
	return &memState{
		stock:  map[int64]int{},
		prices: map[int64]money.Money{},
		cart:   map[cartKey]int{},
		orders: map[int64]order.Order{},
	}
}

func (m *memState) clone() *memState {
	return &memState{
		stock:  maps.Clone(m.stock),
		prices: maps.Clone(m.prices),
		cart:   maps.Clone(m.cart),
		orders: maps.Clone(m.orders),
		items:  append([]order.Item(nil), m.items...),
		nextID: m.nextID,
	}
}

// memUoW serializes units of work the way row locks serialize placements
// touching the same products.
type memUoW struct {
	mu    sync.Mutex
	state *memState

	// hook runs before every session operation; a non-nil error fails it.
	hook func(ctx context.Context, op string, productID int64) error
}

func (u *memUoW) Do(ctx context.Context, fn func(ctx context.Context, s Session) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := u.state.clone()
	if err := fn(ctx, &memSession{u: u, st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.state = work
	return nil
}

func (u *memUoW) snapshot() *memState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.clone()
}

type memSession struct {
	u  *memUoW
	st *memState
}

func (s *memSession) Inventory() Ledger { return s }
func (s *memSession) Catalog() PriceReader { return s }
func (s *memSession) Orders() order.Writer { return s }
func (s *memSession) Cart() CartClearer { return s }

func (s *memSession) before(ctx context.Context, op string, productID int64) error {
	if s.u.hook != nil {
		if err := s.u.hook(ctx, op, productID); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *memSession) GetAvailable(ctx context.Context, productID int64) (int, error) {
	if err := s.before(ctx, "get", productID); err != nil {
		return 0, err
	}
	qty, ok := s.st.stock[productID]
	if !ok {
		return 0, inventory.ErrNotFound
	}
	return qty, nil
}

func (s *memSession) Decrement(ctx context.Context, productID int64, amount int) error {
	if err := s.before(ctx, "decrement", productID); err != nil {
		return err
	}
	qty, ok := s.st.stock[productID]
	if !ok {
		return inventory.ErrNotFound
	}
	if qty < amount {
		return inventory.ErrInsufficientStock
	}
	s.st.stock[productID] = qty - amount
	return nil
}

func (s *memSession) CurrentPrice(ctx context.Context, productID int64) (money.Money, error) {
	if err := s.before(ctx, "price", productID); err != nil {
		return money.Money{}, err
	}
	p, ok := s.st.prices[productID]
	if !ok {
		return money.Money{}, product.ErrNotFound
	}
	return p, nil
}

func (s *memSession) CreateOrder(ctx context.Context, userID, addressID int64, status order.Status, createdAt time.Time) (int64, error) {
	if err := s.before(ctx, "create", 0); err != nil {
		return 0, err
	}
	s.st.nextID++
	id := s.st.nextID
	s.st.orders[id] = order.Order{ID: id, UserID: userID, AddressID: addressID, Status: status, CreatedAt: createdAt}
	return id, nil
}

func (s *memSession) AddOrderLine(ctx context.Context, orderID, productID int64, quantity int, unitPrice money.Money) error {
	if err := s.before(ctx, "add", productID); err != nil {
		return err
	}
	s.st.items = append(s.st.items, order.Item{OrderID: orderID, ProductID: productID, Quantity: quantity, UnitPrice: unitPrice})
	return nil
}

func (s *memSession) Clear(ctx context.Context, userID, productID int64) (bool, error) {
	if err := s.before(ctx, "clear", productID); err != nil {
		return false, err
	}
	k := cartKey{userID, productID}
	if _, ok := s.st.cart[k]; !ok {
		return false, nil
	}
	s.st.cart[k] = 0
	return true, nil
}

func mustMoney(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.Parse(amount, "BRL")
	require.NoError(t, err)
	return m
}

// seed puts each product in stock with its price.
func seed(t *testing.T, stock map[int64]int, price string) *memUoW {
	t.Helper()
	st := newMemState()
	for id, qty := range stock {
		st.stock[id] = qty
		st.prices[id] = mustMoney(t, price)
	}
	return &memUoW{state: st}
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestPlacer(u UnitOfWork) *Placer {
	p := NewPlacer(u, time.Second)
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestPlace_Success(t *testing.T) {
	u := seed(t, map[int64]int{5: 10}, "19.90")
	u.state.cart[cartKey{1, 5}] = 4
	p := newTestPlacer(u)

	id, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 3, Lines: []Line{{ProductID: 5, Quantity: 4}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	st := u.snapshot()
	assert.Equal(t, 6, st.stock[5])
	assert.Equal(t, 0, st.cart[cartKey{1, 5}])
	assert.Contains(t, st.cart, cartKey{1, 5}, "cart line is zeroed, not deleted")

	wantOrder := order.Order{ID: id, UserID: 1, AddressID: 3, Status: order.StatusPlaced, CreatedAt: fixedNow}
	if diff := cmp.Diff(wantOrder, st.orders[id]); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, st.items, 1)
	assert.Equal(t, int64(5), st.items[0].ProductID)
	assert.Equal(t, 4, st.items[0].Quantity)
	assert.True(t, st.items[0].UnitPrice.Equal(mustMoney(t, "19.90")))
}

func TestPlace_InsufficientStock(t *testing.T) {
	u := seed(t, map[int64]int{7: 2}, "10.00")
	p := newTestPlacer(u)

	_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 3, Lines: []Line{{ProductID: 7, Quantity: 5}}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, InsufficientStockError{ProductID: 7, Requested: 5, Available: 2}, *stockErr)

	st := u.snapshot()
	assert.Equal(t, 2, st.stock[7])
	assert.Empty(t, st.orders)
	assert.Empty(t, st.items)
}

func TestPlace_FailingLineRollsBackEarlierLines(t *testing.T) {
	u := seed(t, map[int64]int{1: 5, 2: 5, 3: 0}, "3.50")
	u.state.cart[cartKey{9, 1}] = 1
	u.state.cart[cartKey{9, 2}] = 2
	before := u.snapshot()
	p := newTestPlacer(u)

	_, err := p.Place(t.Context(), Request{UserID: 9, AddressID: 1, Lines: []Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 2},
		{ProductID: 3, Quantity: 1},
	}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	st := u.snapshot()
	assert.Equal(t, before.stock, st.stock)
	assert.Equal(t, before.cart, st.cart)
	assert.Empty(t, st.orders)
	assert.Empty(t, st.items)
}

func TestPlace_ShortMiddleLineLeavesEverythingUntouched(t *testing.T) {
	u := seed(t, map[int64]int{1: 5, 2: 1, 3: 5}, "2.00")
	u.state.cart[cartKey{9, 1}] = 1
	u.state.cart[cartKey{9, 2}] = 3
	u.state.cart[cartKey{9, 3}] = 2
	var touched []int64
	u.hook = func(_ context.Context, _ string, productID int64) error {
		if productID != 0 {
			touched = append(touched, productID)
		}
		return nil
	}
	p := newTestPlacer(u)

	_, err := p.Place(t.Context(), Request{UserID: 9, AddressID: 1, Lines: []Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 3, Quantity: 2},
	}})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, InsufficientStockError{ProductID: 2, Requested: 3, Available: 1}, *stockErr)

	st := u.snapshot()
	assert.Equal(t, map[int64]int{1: 5, 2: 1, 3: 5}, st.stock)
	assert.Equal(t, map[cartKey]int{{9, 1}: 1, {9, 2}: 3, {9, 3}: 2}, st.cart)
	assert.Empty(t, st.orders)
	assert.Empty(t, st.items)
	assert.NotContains(t, touched, int64(3))
}

func TestPlace_StopsAtFirstFailure(t *testing.T) {
	u := seed(t, map[int64]int{1: 0, 2: 0}, "1.00")
	var touched []int64
	u.hook = func(_ context.Context, op string, productID int64) error {
		if op == "get" {
			touched = append(touched, productID)
		}
		return nil
	}
	p := newTestPlacer(u)

	_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 1},
	}})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, []int64{2}, touched)
}

func TestPlace_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		setup func(u *memUoW)
	}{
		{
			name:  "no inventory record",
			setup: func(u *memUoW) { delete(u.state.stock, 4) },
		},
		{
			name:  "no price",
			setup: func(u *memUoW) { delete(u.state.prices, 4) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := seed(t, map[int64]int{4: 10}, "1.00")
			tt.setup(u)
			p := newTestPlacer(u)

			_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 4, Quantity: 1}}})
			require.ErrorIs(t, err, ErrNotFound)

			var nf *NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, int64(4), nf.ProductID)
			assert.Empty(t, u.snapshot().orders)
		})
	}
}

func TestPlace_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "no user", req: Request{AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}}},
		{name: "no address", req: Request{UserID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}}},
		{name: "no lines", req: Request{UserID: 1, AddressID: 1}},
		{name: "zero quantity", req: Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 0}}}},
		{name: "negative quantity", req: Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: -2}}}},
		{name: "bad product", req: Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 0, Quantity: 1}}}},
		{name: "duplicate product", req: Request{UserID: 1, AddressID: 1, Lines: []Line{
			{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 2},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := seed(t, map[int64]int{1: 10}, "1.00")
			u.hook = func(context.Context, string, int64) error {
				t.Fatal("storage touched on invalid input")
				return nil
			}
			p := newTestPlacer(u)

			_, err := p.Place(t.Context(), tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
			var inv *InvalidInputError
			require.ErrorAs(t, err, &inv)
			assert.NotEmpty(t, inv.Reason)
		})
	}
}

func TestPlace_StorageFailureRollsBack(t *testing.T) {
	boom := errors.New("connection reset")

	for _, op := range []string{"create", "get", "price", "add", "decrement", "clear"} {
		t.Run(op, func(t *testing.T) {
			u := seed(t, map[int64]int{1: 3, 2: 3}, "2.00")
			u.state.cart[cartKey{1, 1}] = 1
			before := u.snapshot()
			u.hook = func(_ context.Context, got string, productID int64) error {
				if got == op && (productID == 2 || op == "create") {
					return boom
				}
				return nil
			}
			p := newTestPlacer(u)

			_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{
				{ProductID: 1, Quantity: 1},
				{ProductID: 2, Quantity: 1},
			}})
			require.ErrorIs(t, err, ErrStorage)
			require.ErrorIs(t, err, boom)

			st := u.snapshot()
			assert.Equal(t, before.stock, st.stock)
			assert.Equal(t, before.cart, st.cart)
			assert.Empty(t, st.orders)
		})
	}
}

func TestPlace_DecrementReportsShortage(t *testing.T) {
	u := seed(t, map[int64]int{1: 3}, "2.00")
	u.hook = func(_ context.Context, op string, _ int64) error {
		if op == "decrement" {
			return inventory.ErrInsufficientStock
		}
		return nil
	}
	p := newTestPlacer(u)

	_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 2}}})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
}

func TestPlace_MissingCartLineIsNotAnError(t *testing.T) {
	u := seed(t, map[int64]int{1: 3}, "2.00")
	p := newTestPlacer(u)

	_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}})
	require.NoError(t, err)
	assert.NotContains(t, u.snapshot().cart, cartKey{1, 1})
}

func TestPlace_PriceIsCopiedAtOrderTime(t *testing.T) {
	u := seed(t, map[int64]int{1: 3}, "19.90")
	p := newTestPlacer(u)

	id, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}})
	require.NoError(t, err)

	u.mu.Lock()
	u.state.prices[1] = mustMoney(t, "24.90")
	u.mu.Unlock()

	st := u.snapshot()
	require.Len(t, st.items, 1)
	assert.Equal(t, id, st.items[0].OrderID)
	assert.Equal(t, "19.90", st.items[0].UnitPrice.AmountString())
}

func TestPlace_Cancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		u := seed(t, map[int64]int{1: 3}, "2.00")
		p := newTestPlacer(u)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := p.Place(ctx, Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}})
		require.ErrorIs(t, err, ErrStorage)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 3, u.snapshot().stock[1])
	})

	t.Run("mid transaction", func(t *testing.T) {
		u := seed(t, map[int64]int{1: 3, 2: 3}, "2.00")
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		u.hook = func(_ context.Context, op string, productID int64) error {
			if op == "clear" && productID == 1 {
				cancel()
			}
			return nil
		}
		p := newTestPlacer(u)

		_, err := p.Place(ctx, Request{UserID: 1, AddressID: 1, Lines: []Line{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 1},
		}})
		require.ErrorIs(t, err, context.Canceled)

		st := u.snapshot()
		assert.Equal(t, 3, st.stock[1])
		assert.Empty(t, st.orders)
	})

	t.Run("timeout", func(t *testing.T) {
		u := seed(t, map[int64]int{1: 3}, "2.00")
		u.hook = func(ctx context.Context, op string, _ int64) error {
			if op == "get" {
				<-ctx.Done()
			}
			return nil
		}
		p := NewPlacer(u, 20*time.Millisecond)

		_, err := p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, u.snapshot().orders)
	})
}

func TestPlace_PanicLeavesNoTrace(t *testing.T) {
	u := seed(t, map[int64]int{1: 3}, "2.00")
	u.hook = func(_ context.Context, op string, _ int64) error {
		if op == "clear" {
			panic("boom")
		}
		return nil
	}
	p := newTestPlacer(u)

	assert.Panics(t, func() {
		_, _ = p.Place(t.Context(), Request{UserID: 1, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 1}}})
	})
	st := u.snapshot()
	assert.Equal(t, 3, st.stock[1])
	assert.Empty(t, st.orders)
}

func TestPlace_ConcurrentOrdersNeverOversell(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	u := seed(t, map[int64]int{1: 10}, "5.00")
	p := newTestPlacer(u)

	const workers = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		shortages atomic.Int32
	)
	for i := range workers {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := p.Place(context.Background(), Request{UserID: user, AddressID: 1, Lines: []Line{{ProductID: 1, Quantity: 6}}})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				shortages.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), shortages.Load())

	st := u.snapshot()
	assert.Equal(t, 4, st.stock[1])
	assert.Len(t, st.orders, 1)
}

func TestErrorMatching(t *testing.T) {
	wrapped := &StorageError{Op: "commit", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, wrapped, ErrStorage)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.NotErrorIs(t, wrapped, ErrNotFound)

	assert.ErrorIs(t, classify(errors.New("begin tx: refused")), ErrStorage)
	nf := &NotFoundError{ProductID: 3}
	assert.Same(t, nf, classify(nf))
	assert.Equal(t, "product 3 not found", nf.Error())
}
