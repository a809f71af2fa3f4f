package service

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/cache"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/vnpay"
	"github.com/shopspring/decimal"
)

type memState struct {
	nextID     int64
	brands     map[int64]domain.Brand
	products   map[int64]domain.Product
	carts      map[int64]domain.Cart
	cartItems  map[int64]domain.CartItem
	shippings  map[int64]domain.Shipping
	vouchers   map[int64]domain.Voucher
	orders     map[int64]domain.Order
	orderItems map[int64]domain.OrderItem
	payments   map[int64]domain.Payment
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s memState) clone() memState {
	return memState{
		nextID:     s.nextID,
		brands:     cloneMap(s.brands),
		products:   cloneMap(s.products),
		carts:      cloneMap(s.carts),
		cartItems:  cloneMap(s.cartItems),
		shippings:  cloneMap(s.shippings),
		vouchers:   cloneMap(s.vouchers),
		orders:     cloneMap(s.orders),
		orderItems: cloneMap(s.orderItems),
		payments:   cloneMap(s.payments),
	}
}

// memStore implements repository.RepoInterface in memory. Transactions are
// serialized and roll back by restoring a snapshot.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	memState

	// errs injects a failure into the named method.
	errs map[string]error
	txs  int
}

func newMemStore() *memStore {
	return &memStore{
		memState: memState{
			brands:     map[int64]domain.Brand{},
			products:   map[int64]domain.Product{},
			carts:      map[int64]domain.Cart{},
			cartItems:  map[int64]domain.CartItem{},
			shippings:  map[int64]domain.Shipping{},
			vouchers:   map[int64]domain.Voucher{},
			orders:     map[int64]domain.Order{},
			orderItems: map[int64]domain.OrderItem{},
			payments:   map[int64]domain.Payment{},
		},
		errs: map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) fail(method string) error {
	return m.errs[method]
}

func (m *memStore) WithTx(_ context.Context, fn func(repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.memState.clone()
	m.txs++
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.memState = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) RunMigrations(*repository.Credentials) error { return nil }
func (m *memStore) Close() error                               { return nil }

// --- seeding helpers ---

func (m *memStore) addProduct(name string, price int64, discount int64, qty int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := domain.Product{
		ID:       m.id(),
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Discount: decimal.NewFromInt(discount),
		Quantity: qty,
	}
	p.Reprice()
	m.products[p.ID] = p
	return p.ID
}

func (m *memStore) addShipping(amount int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.Shipping{ID: m.id(), Name: "Standard", Method: "road", Amount: decimal.NewFromInt(amount)}
	m.shippings[s.ID] = s
	return s.ID
}

func (m *memStore) addVoucher(discount int64, start, expiry time.Time, status domain.VoucherStatus) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := domain.Voucher{
		ID:             m.id(),
		Code:           "SALE",
		DiscountAmount: decimal.NewFromInt(discount),
		StartDate:      start,
		ExpiryDate:     expiry,
		Status:         status,
	}
	m.vouchers[v.ID] = v
	return v.ID
}

// addCartLine puts qty of a product in the user's active cart at the current
// discounted price.
func (m *memStore) addCartLine(userID, productID int64, qty int) {
	cart, _ := m.GetOrCreateActiveCart(context.Background(), userID)
	m.mu.Lock()
	p := m.products[productID]
	m.mu.Unlock()
	_ = m.InsertCartItem(context.Background(), &domain.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  qty,
		Price:     domain.LinePrice(p.DiscountedPrice, qty),
	})
}

func (m *memStore) addOrder(o domain.Order) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	o.Version = 1
	m.orders[o.ID] = o
	return &o
}

func (m *memStore) order(id int64) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memStore) product(id int64) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

func (m *memStore) counts() (orders, items, payments int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), len(m.orderItems), len(m.payments)
}

// --- CatalogStore ---

func (m *memStore) CreateBrand(_ context.Context, b *domain.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.brands {
		if existing.Name == b.Name {
			return repository.ErrDuplicate
		}
	}
	b.ID = m.id()
	m.brands[b.ID] = *b
	return nil
}

func (m *memStore) GetBrand(_ context.Context, id int64) (*domain.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.brands[id]
	if !ok {
		return nil, repository.ErrBrandNotFound
	}
	return &b, nil
}

func (m *memStore) ListBrands(context.Context) ([]*domain.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Brand, 0, len(m.brands))
	for _, b := range m.brands {
		b := b
		out = append(out, &b)
	}
	return out, nil
}

func (m *memStore) UpdateBrand(_ context.Context, b *domain.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.brands[b.ID]; !ok {
		return repository.ErrBrandNotFound
	}
	m.brands[b.ID] = *b
	return nil
}

func (m *memStore) DeleteBrand(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.brands[id]; !ok {
		return repository.ErrBrandNotFound
	}
	delete(m.brands, id)
	return nil
}

func (m *memStore) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.Reprice()
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if err := m.fail("GetProduct"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *memStore) ListProducts(_ context.Context, brandID *int64) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Product, 0)
	for _, p := range m.products {
		p := p
		if brandID != nil && (p.BrandID == nil || *p.BrandID != *brandID) {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	p.Reprice()
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) LockProducts(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (m *memStore) DecrementStock(_ context.Context, productID int64, quantity int) error {
	if err := m.fail("DecrementStock"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Quantity < quantity {
		return repository.ErrInsufficientStock
	}
	p.Quantity -= quantity
	p.Status = domain.StockStatus(p.Quantity)
	m.products[productID] = p
	return nil
}

// --- CartStore ---

func (m *memStore) activeCart(userID int64) (*domain.Cart, error) {
	for _, c := range m.carts {
		if c.UserID != userID || c.Status != domain.CartStatusActive {
			continue
		}
		c := c
		c.Items = make([]domain.CartItem, 0)
		for _, it := range m.cartItems {
			if it.CartID != c.ID {
				continue
			}
			p := m.products[it.ProductID]
			it.ProductName = p.Name
			it.DiscountedPrice = p.DiscountedPrice
			c.Items = append(c.Items, it)
		}
		sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ID < c.Items[j].ID })
		c.Subtotal = domain.Subtotal(c.Items)
		return &c, nil
	}
	return nil, repository.ErrCartNotFound
}

func (m *memStore) GetActiveCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCart(userID)
}

func (m *memStore) LockActiveCart(_ context.Context, userID int64) (*domain.Cart, error) {
	if err := m.fail("LockActiveCart"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCart(userID)
}

func (m *memStore) GetOrCreateActiveCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, err := m.activeCart(userID); err == nil {
		return c, nil
	}
	c := domain.Cart{ID: m.id(), UserID: userID, Status: domain.CartStatusActive}
	m.carts[c.ID] = c
	return m.activeCart(userID)
}

func (m *memStore) InsertCartItem(_ context.Context, item *domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.cartItems {
		if it.CartID == item.CartID && it.ProductID == item.ProductID {
			return repository.ErrDuplicate
		}
	}
	item.ID = m.id()
	m.cartItems[item.ID] = *item
	return nil
}

func (m *memStore) UpdateCartItem(_ context.Context, itemID int64, quantity int, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.cartItems[itemID]
	if !ok {
		return repository.ErrCartItemNotFound
	}
	it.Quantity = quantity
	it.Price = price
	m.cartItems[itemID] = it
	return nil
}

func (m *memStore) DeleteCartItem(_ context.Context, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cartItems[itemID]; !ok {
		return repository.ErrCartItemNotFound
	}
	delete(m.cartItems, itemID)
	return nil
}

func (m *memStore) CompleteCart(_ context.Context, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[cartID]
	if !ok || c.Status != domain.CartStatusActive {
		return repository.ErrCartNotFound
	}
	c.Status = domain.CartStatusCompleted
	m.carts[cartID] = c
	for id, it := range m.cartItems {
		if it.CartID == cartID {
			delete(m.cartItems, id)
		}
	}
	return nil
}

// --- ShippingStore ---

func (m *memStore) CreateShipping(_ context.Context, s *domain.Shipping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	m.shippings[s.ID] = *s
	return nil
}

func (m *memStore) GetShipping(_ context.Context, id int64) (*domain.Shipping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shippings[id]
	if !ok {
		return nil, repository.ErrShippingNotFound
	}
	return &s, nil
}

func (m *memStore) ListShippings(context.Context) ([]*domain.Shipping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Shipping, 0, len(m.shippings))
	for _, s := range m.shippings {
		s := s
		out = append(out, &s)
	}
	return out, nil
}

func (m *memStore) UpdateShipping(_ context.Context, s *domain.Shipping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shippings[s.ID]; !ok {
		return repository.ErrShippingNotFound
	}
	m.shippings[s.ID] = *s
	return nil
}

func (m *memStore) DeleteShipping(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shippings[id]; !ok {
		return repository.ErrShippingNotFound
	}
	delete(m.shippings, id)
	return nil
}

// --- VoucherStore ---

func (m *memStore) CreateVoucher(_ context.Context, v *domain.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.id()
	m.vouchers[v.ID] = *v
	return nil
}

func (m *memStore) GetVoucher(_ context.Context, id int64) (*domain.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok {
		return nil, repository.ErrVoucherNotFound
	}
	return &v, nil
}

func (m *memStore) ListVouchers(context.Context) ([]*domain.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Voucher, 0, len(m.vouchers))
	for _, v := range m.vouchers {
		v := v
		out = append(out, &v)
	}
	return out, nil
}

func (m *memStore) UpdateVoucher(_ context.Context, v *domain.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vouchers[v.ID]; !ok {
		return repository.ErrVoucherNotFound
	}
	m.vouchers[v.ID] = *v
	return nil
}

func (m *memStore) SetVoucherStatus(_ context.Context, id int64, status domain.VoucherStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok {
		return repository.ErrVoucherNotFound
	}
	v.Status = status
	m.vouchers[id] = v
	return nil
}

func (m *memStore) DeleteVoucher(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vouchers[id]; !ok {
		return repository.ErrVoucherNotFound
	}
	delete(m.vouchers, id)
	return nil
}

// --- OrderStore ---

func (m *memStore) InsertOrder(_ context.Context, o *domain.Order) error {
	if err := m.fail("InsertOrder"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	o.Version = 1
	stored := *o
	stored.Items = nil
	m.orders[o.ID] = stored
	return nil
}

func (m *memStore) InsertOrderItem(_ context.Context, item *domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	m.orderItems[item.ID] = *item
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (m *memStore) LockOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memStore) listOrders(keep func(domain.Order) bool) []*domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Order, 0)
	for _, o := range m.orders {
		o := o
		if keep(o) {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memStore) ListOrders(context.Context) ([]*domain.Order, error) {
	return m.listOrders(func(domain.Order) bool { return true }), nil
}

func (m *memStore) ListOrdersByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	return m.listOrders(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (m *memStore) ListOrdersByStatus(_ context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return m.listOrders(func(o domain.Order) bool { return o.Status == status }), nil
}

func (m *memStore) ListOrderItems(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.OrderItem, 0)
	for _, it := range m.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, o *domain.Order, status domain.OrderStatus, payment domain.PaymentStatus) error {
	if err := m.fail("UpdateOrderStatus"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if stored.Version != o.Version {
		return repository.ErrVersionConflict
	}
	stored.Status = status
	stored.PaymentStatus = payment
	stored.Version++
	m.orders[o.ID] = stored
	o.Status, o.PaymentStatus, o.Version = status, payment, stored.Version
	return nil
}

func (m *memStore) TotalsByPaymentMethod(_ context.Context, status domain.OrderStatus) (map[domain.PaymentMethod]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[domain.PaymentMethod]decimal.Decimal{
		domain.PaymentMethodCOD:   decimal.Zero,
		domain.PaymentMethodVNPay: decimal.Zero,
	}
	for _, o := range m.orders {
		if o.Status == status {
			totals[o.PaymentMethod] = totals[o.PaymentMethod].Add(o.TotalAmount)
		}
	}
	return totals, nil
}

// --- PaymentStore ---

func (m *memStore) InsertPayment(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Status == domain.PaymentRecordSuccess {
		for _, existing := range m.payments {
			if existing.OrderID == p.OrderID && existing.Status == domain.PaymentRecordSuccess {
				return repository.ErrDuplicate
			}
		}
	}
	p.ID = m.id()
	m.payments[p.ID] = *p
	return nil
}

func (m *memStore) ListPayments(context.Context) ([]*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (m *memStore) TotalPayments(context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, p := range m.payments {
		if p.Status == domain.PaymentRecordSuccess {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (m *memStore) HasSuccessfulPayment(_ context.Context, orderID int64) (bool, error) {
	if err := m.fail("HasSuccessfulPayment"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.OrderID == orderID && p.Status == domain.PaymentRecordSuccess {
			return true, nil
		}
	}
	return false, nil
}

// --- collaborators ---

type mockCache struct {
	m         sync.RWMutex
	carts     map[int64]*domain.Cart
	versions  map[int64]int64
	err       error
	setDelay  time.Duration
	beforeSet func()
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[int64]*domain.Cart{}, versions: map[int64]int64{}}
}

func (c *mockCache) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	cart, ok := c.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (c *mockCache) Version(_ context.Context, userID int64) (int64, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.versions[userID], nil
}

func (c *mockCache) Set(_ context.Context, userID int64, cart *domain.Cart, version int64) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	if c.setDelay > 0 {
		time.Sleep(c.setDelay)
	}
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.versions[userID] != version {
		return cache.ErrStale
	}
	c.carts[userID] = cart
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID int64) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, userID)
	c.versions[userID]++
	return c.err
}

func (c *mockCache) cached(userID int64) bool {
	c.m.RLock()
	defer c.m.RUnlock()
	_, ok := c.carts[userID]
	return ok
}

type mockNotifier struct {
	m      sync.Mutex
	orders []int64
	err    error
}

func (n *mockNotifier) PaymentSucceeded(_ context.Context, order *domain.Order, _ *domain.Payment) error {
	n.m.Lock()
	defer n.m.Unlock()
	n.orders = append(n.orders, order.ID)
	return n.err
}

type mockChecker struct {
	status vnpay.QueryStatus
	err    error
	calls  int
}

func (c *mockChecker) PaymentStatus(context.Context, *domain.Order) (vnpay.QueryStatus, error) {
	c.calls++
	return c.status, c.err
}

type mockQuerier struct {
	status vnpay.QueryStatus
	err    error
	calls  int
}

func (q *mockQuerier) Query(context.Context, int64, time.Time) (vnpay.QueryStatus, error) {
	q.calls++
	return q.status, q.err
}

var errBoom = errors.New("boom")

const testHashSecret = "TESTSECRET"

func newTestGateway() *vnpay.Client {
	return vnpay.NewClient(vnpay.Config{
		TmnCode:    "DEMO0001",
		HashSecret: testHashSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:3000/payment-return",
	})
}

// callbackParams builds gateway callback parameters for an order.
func callbackParams(orderID, code, minorAmount string) url.Values {
	v := url.Values{}
	v.Set("vnp_TxnRef", orderID)
	v.Set("vnp_ResponseCode", code)
	v.Set("vnp_TransactionStatus", code)
	v.Set("vnp_TransactionNo", "14123456")
	v.Set("vnp_Amount", minorAmount)
	v.Set("vnp_BankCode", "NCB")
	v.Set("vnp_CardType", "ATM")
	v.Set("vnp_PayDate", "20261018143000")
	v.Set("vnp_TmnCode", "DEMO0001")
	return v
}
