package http

import (
	"context"
	"net/url"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/service"
	"github.com/shopspring/decimal"
)

type cartMock struct {
	cart *domain.Cart
	err  error

	gotActor    policy.Actor
	gotProduct  int64
	gotItem     int64
	gotQuantity int
}

func (m *cartMock) GetCart(_ context.Context, actor policy.Actor) (*domain.Cart, error) {
	m.gotActor = actor
	return m.cart, m.err
}

func (m *cartMock) AddItem(_ context.Context, actor policy.Actor, productID int64, quantity int) (*domain.Cart, error) {
	m.gotActor, m.gotProduct, m.gotQuantity = actor, productID, quantity
	return m.cart, m.err
}

func (m *cartMock) UpdateItem(_ context.Context, actor policy.Actor, itemID int64, quantity int) (*domain.Cart, error) {
	m.gotActor, m.gotItem, m.gotQuantity = actor, itemID, quantity
	return m.cart, m.err
}

func (m *cartMock) RemoveItem(_ context.Context, actor policy.Actor, itemID int64) (*domain.Cart, error) {
	m.gotActor, m.gotItem = actor, itemID
	return m.cart, m.err
}

func (m *cartMock) CompleteCart(_ context.Context, actor policy.Actor) error {
	m.gotActor = actor
	return m.err
}

type ordersMock struct {
	order    *domain.Order
	orders   []*domain.Order
	placed   *service.PlaceOrderResult
	delivery *service.DeliveryResult
	totals   map[domain.PaymentMethod]decimal.Decimal
	err      error

	gotActor policy.Actor
	gotID    int64
	gotReq   service.PlaceOrderRequest
}

func (m *ordersMock) PlaceOrder(_ context.Context, actor policy.Actor, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
	m.gotActor, m.gotReq = actor, req
	return m.placed, m.err
}

func (m *ordersMock) GetOrder(_ context.Context, actor policy.Actor, id int64) (*domain.Order, error) {
	m.gotActor, m.gotID = actor, id
	return m.order, m.err
}

func (m *ordersMock) OrderItems(_ context.Context, actor policy.Actor, id int64) ([]domain.OrderItem, error) {
	m.gotActor, m.gotID = actor, id
	if m.order == nil {
		return nil, m.err
	}
	return m.order.Items, m.err
}

func (m *ordersMock) ListMyOrders(_ context.Context, actor policy.Actor) ([]*domain.Order, error) {
	m.gotActor = actor
	return m.orders, m.err
}

func (m *ordersMock) ListOrders(_ context.Context, actor policy.Actor) ([]*domain.Order, error) {
	m.gotActor = actor
	return m.orders, m.err
}

func (m *ordersMock) ListUserOrders(_ context.Context, actor policy.Actor, userID int64) ([]*domain.Order, error) {
	m.gotActor, m.gotID = actor, userID
	return m.orders, m.err
}

func (m *ordersMock) CanceledOrders(_ context.Context, actor policy.Actor) ([]*domain.Order, error) {
	m.gotActor = actor
	return m.orders, m.err
}

func (m *ordersMock) CompletedTotals(_ context.Context, actor policy.Actor) (map[domain.PaymentMethod]decimal.Decimal, error) {
	m.gotActor = actor
	return m.totals, m.err
}

func (m *ordersMock) AdvanceStatus(_ context.Context, actor policy.Actor, orderID int64) (*domain.Order, error) {
	m.gotActor, m.gotID = actor, orderID
	return m.order, m.err
}

func (m *ordersMock) ConfirmDelivery(_ context.Context, actor policy.Actor, orderID int64) (*service.DeliveryResult, error) {
	m.gotActor, m.gotID = actor, orderID
	return m.delivery, m.err
}

type paymentsMock struct {
	request  *service.PaymentRequestResult
	callback *service.CallbackResult
	payments []*domain.Payment
	total    decimal.Decimal
	err      error

	gotActor  policy.Actor
	gotInput  service.PaymentRequestInput
	gotParams url.Values
}

func (m *paymentsMock) CreatePaymentRequest(_ context.Context, actor policy.Actor, in service.PaymentRequestInput) (*service.PaymentRequestResult, error) {
	m.gotActor, m.gotInput = actor, in
	return m.request, m.err
}

func (m *paymentsMock) HandleCallback(_ context.Context, params url.Values) (*service.CallbackResult, error) {
	m.gotParams = params
	return m.callback, m.err
}

func (m *paymentsMock) ListPayments(_ context.Context, actor policy.Actor) ([]*domain.Payment, error) {
	m.gotActor = actor
	return m.payments, m.err
}

func (m *paymentsMock) TotalPayments(_ context.Context, actor policy.Actor) (decimal.Decimal, error) {
	m.gotActor = actor
	return m.total, m.err
}

type catalogMock struct {
	brand    *domain.Brand
	product  *domain.Product
	products []*domain.Product
	err      error

	gotActor   policy.Actor
	gotBrandID *int64
	gotProduct *domain.Product
}

func (m *catalogMock) CreateBrand(_ context.Context, actor policy.Actor, b *domain.Brand) error {
	m.gotActor = actor
	b.ID = 1
	return m.err
}

func (m *catalogMock) GetBrand(context.Context, int64) (*domain.Brand, error) {
	return m.brand, m.err
}

func (m *catalogMock) ListBrands(context.Context) ([]*domain.Brand, error) {
	if m.brand == nil {
		return nil, m.err
	}
	return []*domain.Brand{m.brand}, m.err
}

func (m *catalogMock) UpdateBrand(_ context.Context, actor policy.Actor, _ *domain.Brand) error {
	m.gotActor = actor
	return m.err
}

func (m *catalogMock) DeleteBrand(_ context.Context, actor policy.Actor, _ int64) error {
	m.gotActor = actor
	return m.err
}

func (m *catalogMock) CreateProduct(_ context.Context, actor policy.Actor, p *domain.Product) error {
	m.gotActor, m.gotProduct = actor, p
	if m.err != nil {
		return m.err
	}
	p.ID = 7
	p.Reprice()
	return nil
}

func (m *catalogMock) GetProduct(context.Context, int64) (*domain.Product, error) {
	return m.product, m.err
}

func (m *catalogMock) ListProducts(_ context.Context, brandID *int64) ([]*domain.Product, error) {
	m.gotBrandID = brandID
	return m.products, m.err
}

func (m *catalogMock) UpdateProduct(_ context.Context, actor policy.Actor, p *domain.Product) error {
	m.gotActor, m.gotProduct = actor, p
	return m.err
}

func (m *catalogMock) DeleteProduct(_ context.Context, actor policy.Actor, _ int64) error {
	m.gotActor = actor
	return m.err
}

type shippingsMock struct {
	list []*domain.Shipping
	err  error
}

func (m *shippingsMock) Create(_ context.Context, _ policy.Actor, sh *domain.Shipping) error {
	sh.ID = 3
	return m.err
}

func (m *shippingsMock) Get(context.Context, int64) (*domain.Shipping, error) {
	if len(m.list) == 0 {
		return nil, m.err
	}
	return m.list[0], m.err
}

func (m *shippingsMock) List(context.Context) ([]*domain.Shipping, error) {
	return m.list, m.err
}

func (m *shippingsMock) Update(context.Context, policy.Actor, *domain.Shipping) error {
	return m.err
}

func (m *shippingsMock) Delete(context.Context, policy.Actor, int64) error {
	return m.err
}

type vouchersMock struct {
	voucher   *domain.Voucher
	err       error
	gotStatus domain.VoucherStatus
}

func (m *vouchersMock) Create(_ context.Context, _ policy.Actor, v *domain.Voucher) error {
	v.ID = 9
	return m.err
}

func (m *vouchersMock) Get(context.Context, int64) (*domain.Voucher, error) {
	return m.voucher, m.err
}

func (m *vouchersMock) List(context.Context) ([]*domain.Voucher, error) {
	if m.voucher == nil {
		return nil, m.err
	}
	return []*domain.Voucher{m.voucher}, m.err
}

func (m *vouchersMock) Update(context.Context, policy.Actor, *domain.Voucher) error {
	return m.err
}

func (m *vouchersMock) ChangeStatus(_ context.Context, _ policy.Actor, _ int64, status domain.VoucherStatus) error {
	m.gotStatus = status
	return m.err
}

func (m *vouchersMock) Delete(context.Context, policy.Actor, int64) error {
	return m.err
}
