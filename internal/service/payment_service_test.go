package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/vnpay"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func testPaymentConfig() PaymentConfig {
	return PaymentConfig{
		MinAmount: decimal.NewFromInt(10000),
		MaxAmount: decimal.NewFromInt(50000000),
		OrderURL:  "http://localhost:3000/orders/",
	}
}

func newTestPaymentService(store *memStore, notifier PaymentNotifier, cfg PaymentConfig) *PaymentService {
	svc := NewPaymentService(store, newTestGateway(), notifier, cfg)
	svc.now = func() time.Time { return friday }
	return svc
}

func gatewayOrder(store *memStore, total int64) *domain.Order {
	return store.addOrder(domain.Order{
		UserID:        buyer.ID,
		ContactEmail:  buyer.Email,
		PaymentMethod: domain.PaymentMethodVNPay,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusWaitingForPayment,
		TotalAmount:   decimal.NewFromInt(total),
	})
}

func txnRef(o *domain.Order) string {
	return strconv.FormatInt(o.ID, 10)
}

func TestCreatePaymentRequest_Gateway(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	svc := newTestPaymentService(store, nil, testPaymentConfig())

	res, err := svc.CreatePaymentRequest(context.Background(), buyer, PaymentRequestInput{
		OrderID:  o.ID,
		BankCode: "NCB",
		ClientIP: "203.0.113.7",
		Locale:   "en",
	})
	require.NoError(t, err)

	u, err := url.Parse(res.PaymentURL)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", u.Host)

	q := u.Query()
	assert.Equal(t, "13000000", q.Get("vnp_Amount"))
	assert.Equal(t, txnRef(o), q.Get("vnp_TxnRef"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	assert.Equal(t, "203.0.113.7", q.Get("vnp_IpAddr"))
	assert.Equal(t, "en", q.Get("vnp_Locale"))
	assert.NoError(t, newTestGateway().Verify(q))

	// No state change for a gateway request.
	assert.Equal(t, domain.OrderStatusPending, store.order(o.ID).Status)
}

func TestCreatePaymentRequest_CashOnDelivery(t *testing.T) {
	store := newMemStore()
	waiting := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodCOD, Status: domain.OrderStatusWaitingForDelivery})
	pending := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodCOD, Status: domain.OrderStatusPending})
	delivered := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodCOD, Status: domain.OrderStatusDelivered})
	svc := newTestPaymentService(store, nil, testPaymentConfig())

	res, err := svc.CreatePaymentRequest(context.Background(), buyer, PaymentRequestInput{OrderID: waiting.ID})
	require.NoError(t, err)
	assert.Empty(t, res.PaymentURL)
	assert.Equal(t, codConfirmation, res.Message)

	_, err = svc.CreatePaymentRequest(context.Background(), buyer, PaymentRequestInput{OrderID: pending.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusWaitingForDelivery, store.order(pending.ID).Status)

	_, err = svc.CreatePaymentRequest(context.Background(), buyer, PaymentRequestInput{OrderID: delivered.ID})
	assert.ErrorIs(t, err, ErrOrderNotPayable)
	assert.Equal(t, domain.OrderStatusDelivered, store.order(delivered.ID).Status)
}

func TestCreatePaymentRequest_Rejections(t *testing.T) {
	store := newMemStore()
	tooSmall := gatewayOrder(store, 9999)
	tooLarge := gatewayOrder(store, 50000001)
	paid := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodVNPay, Status: domain.OrderStatusWaitingForDelivery, PaymentStatus: domain.PaymentStatusPaid, TotalAmount: decimal.NewFromInt(20000)})
	canceled := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodVNPay, Status: domain.OrderStatusCanceled, PaymentStatus: domain.PaymentStatusFailed, TotalAmount: decimal.NewFromInt(20000)})
	ok := gatewayOrder(store, 20000)
	svc := newTestPaymentService(store, nil, testPaymentConfig())
	stranger := policy.Actor{ID: 555, Role: policy.RoleUser}

	tests := []struct {
		name     string
		actor    policy.Actor
		in       PaymentRequestInput
		wantCode codes.Code
	}{
		{"zero order id", buyer, PaymentRequestInput{OrderID: 0}, codes.InvalidArgument},
		{"unknown order", buyer, PaymentRequestInput{OrderID: 424242}, codes.NotFound},
		{"below minimum", buyer, PaymentRequestInput{OrderID: tooSmall.ID}, codes.InvalidArgument},
		{"above maximum", buyer, PaymentRequestInput{OrderID: tooLarge.ID}, codes.InvalidArgument},
		{"already paid", buyer, PaymentRequestInput{OrderID: paid.ID}, codes.FailedPrecondition},
		{"canceled", buyer, PaymentRequestInput{OrderID: canceled.ID}, codes.FailedPrecondition},
		{"bad locale", buyer, PaymentRequestInput{OrderID: ok.ID, Locale: "fr"}, codes.InvalidArgument},
		{"someone else's order", stranger, PaymentRequestInput{OrderID: ok.ID}, codes.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePaymentRequest(context.Background(), tt.actor, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, Code(err))
		})
	}

	_, err := svc.CreatePaymentRequest(context.Background(), staff, PaymentRequestInput{OrderID: ok.ID})
	assert.NoError(t, err, "staff may start a payment for any order")
}

func TestHandleCallback_Success(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	notifier := &mockNotifier{}
	svc := newTestPaymentService(store, notifier, testPaymentConfig())

	res, err := svc.HandleCallback(context.Background(), callbackParams(txnRef(o), "00", "13000000"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, callbackSucceeded, res.Message)
	assert.Equal(t, "http://localhost:3000/orders/"+txnRef(o), res.OrderURL)
	assert.True(t, strings.HasPrefix(res.PaymentReturnURL, "http://localhost:3000/payment-return?"))

	stored := store.order(o.ID)
	assert.Equal(t, domain.OrderStatusWaitingForDelivery, stored.Status)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)

	payments, err := store.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.True(t, decimal.NewFromInt(130000).Equal(p.Amount))
	assert.Equal(t, "14123456", p.TransactionNo)
	assert.Equal(t, "NCB", p.BankCode)
	assert.Equal(t, "ATM", p.CardType)
	assert.Equal(t, domain.PaymentRecordSuccess, p.Status)

	assert.Equal(t, []int64{o.ID}, notifier.orders)
}

func TestHandleCallback_RepeatedSuccessIsIdempotent(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	notifier := &mockNotifier{}
	svc := newTestPaymentService(store, notifier, testPaymentConfig())
	params := callbackParams(txnRef(o), "00", "13000000")

	_, err := svc.HandleCallback(context.Background(), params)
	require.NoError(t, err)
	res, err := svc.HandleCallback(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	_, _, payments := store.counts()
	assert.Equal(t, 1, payments)
	assert.Len(t, notifier.orders, 1)
}

func TestHandleCallback_Declined(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	notifier := &mockNotifier{}
	svc := newTestPaymentService(store, notifier, testPaymentConfig())

	res, err := svc.HandleCallback(context.Background(), callbackParams(txnRef(o), "24", "13000000"))
	require.NoError(t, err, "a declined payment is an outcome, not an error")
	assert.False(t, res.Succeeded)
	assert.Equal(t, callbackDeclined, res.Message)

	stored := store.order(o.ID)
	assert.Equal(t, domain.OrderStatusCanceled, stored.Status)
	assert.Equal(t, domain.PaymentStatusFailed, stored.PaymentStatus)

	_, _, payments := store.counts()
	assert.Zero(t, payments)
	assert.Empty(t, notifier.orders)

	// A repeated decline changes nothing.
	_, err = svc.HandleCallback(context.Background(), callbackParams(txnRef(o), "24", "13000000"))
	require.NoError(t, err)
	assert.Equal(t, stored.Version, store.order(o.ID).Version)
}

func TestHandleCallback_Conflicts(t *testing.T) {
	store := newMemStore()
	cash := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodCOD, Status: domain.OrderStatusWaitingForDelivery})
	canceled := store.addOrder(domain.Order{UserID: buyer.ID, PaymentMethod: domain.PaymentMethodVNPay, Status: domain.OrderStatusCanceled, PaymentStatus: domain.PaymentStatusFailed})
	paid := gatewayOrder(store, 130000)
	svc := newTestPaymentService(store, nil, testPaymentConfig())
	_, err := svc.HandleCallback(context.Background(), callbackParams(txnRef(paid), "00", "13000000"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		params url.Values
	}{
		{"cash order", callbackParams(txnRef(cash), "00", "13000000")},
		{"settled after cancel", callbackParams(txnRef(canceled), "00", "13000000")},
		{"declined after paid", callbackParams(txnRef(paid), "24", "13000000")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HandleCallback(context.Background(), tt.params)
			require.ErrorIs(t, err, ErrCallbackConflict)
			assert.Equal(t, codes.FailedPrecondition, Code(err))
			assert.False(t, Retryable(Code(err)))
		})
	}

	assert.Equal(t, domain.PaymentStatusPaid, store.order(paid.ID).PaymentStatus)
	assert.Equal(t, domain.OrderStatusCanceled, store.order(canceled.ID).Status)
	_, _, payments := store.counts()
	assert.Equal(t, 1, payments)
}

func TestHandleCallback_BadInput(t *testing.T) {
	store := newMemStore()
	svc := newTestPaymentService(store, nil, testPaymentConfig())

	_, err := svc.HandleCallback(context.Background(), callbackParams("424242", "00", "100"))
	assert.Equal(t, codes.NotFound, Code(err))

	_, err = svc.HandleCallback(context.Background(), url.Values{"vnp_ResponseCode": {"00"}})
	assert.ErrorIs(t, err, vnpay.ErrMissingField)
	assert.Equal(t, codes.InvalidArgument, Code(err))
}

func TestHandleCallback_NotificationFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	notifier := &mockNotifier{err: errBoom}
	svc := newTestPaymentService(store, notifier, testPaymentConfig())

	res, err := svc.HandleCallback(context.Background(), callbackParams(txnRef(o), "00", "13000000"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, domain.PaymentStatusPaid, store.order(o.ID).PaymentStatus)
	assert.Len(t, notifier.orders, 1)
}

// Without verification the callback's own signature is never checked, so a
// forged "00" settles the order. This is the default and a known gap.
func TestHandleCallback_UnsignedCallbackTrustedByDefault(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	svc := newTestPaymentService(store, nil, testPaymentConfig())

	params := callbackParams(txnRef(o), "00", "13000000")
	params.Set("vnp_SecureHash", "forged")

	res, err := svc.HandleCallback(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, domain.PaymentStatusPaid, store.order(o.ID).PaymentStatus)
}

func TestHandleCallback_VerificationEnabled(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	cfg := testPaymentConfig()
	cfg.VerifyCallback = true
	svc := newTestPaymentService(store, nil, cfg)

	forged := callbackParams(txnRef(o), "00", "13000000")
	forged.Set("vnp_SecureHash", "forged")
	_, err := svc.HandleCallback(context.Background(), forged)
	require.ErrorIs(t, err, vnpay.ErrInvalidSignature)
	assert.Equal(t, domain.PaymentStatusWaitingForPayment, store.order(o.ID).PaymentStatus)

	signed := callbackParams(txnRef(o), "00", "13000000")
	signed.Set("vnp_SecureHash", newTestGateway().Sign(signed))
	res, err := svc.HandleCallback(context.Background(), signed)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
}

func TestPaymentReports(t *testing.T) {
	store := newMemStore()
	o := gatewayOrder(store, 130000)
	svc := newTestPaymentService(store, nil, testPaymentConfig())
	_, err := svc.HandleCallback(context.Background(), callbackParams(txnRef(o), "00", "13000000"))
	require.NoError(t, err)

	total, err := svc.TotalPayments(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(130000).Equal(total))

	list, err := svc.ListPayments(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListPayments(context.Background(), staff)
	assert.ErrorIs(t, err, policy.ErrForbidden)
}
