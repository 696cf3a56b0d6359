package payments

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/internal/stores"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/mailer"
	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay/razorpaytest"
	"github.com/angelmondragon/shopconsole-backend/pkg/signature"
)

const clientSecret = "rzp_key_secret"

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	conn    *gorm.DB
	svc     Service
	mail    *recordingMailer
	gateway *razorpaytest.Gateway
	store   models.Store
	order   models.Order
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	store := dbtest.SeedStore(t, conn, "owner-1")
	product, variants := dbtest.SeedProduct(t, conn, store, "Linen Shirt", "1250.00")

	ref := "order_Nx1"
	order := models.Order{
		StoreID:         store.ID,
		TotalAmount:     decimal.NewFromInt(2500),
		Currency:        enums.CurrencyINR,
		OrderStatus:     enums.OrderStatusPending,
		GatewayOrderRef: &ref,
		Name:            "Asha",
		Email:           "asha@example.com",
		Phone:           "+919999999999",
		Address:         "12 MG Road",
		Items: []models.OrderItem{{
			ProductID:   product.ID,
			VariantID:   variants[0].ID,
			ProductName: product.Name,
			Size:        variants[0].Size,
			Color:       variants[0].Color,
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(1250),
			TotalPrice:  decimal.NewFromInt(2500),
		}},
	}
	require.NoError(t, orders.NewRepository(conn).Create(context.Background(), &order))

	storeSvc, err := stores.NewService(stores.NewRepository(conn))
	require.NoError(t, err)
	mail := &recordingMailer{}
	gateway := razorpaytest.New()
	svc, err := NewService(ServiceParams{
		Orders:       orders.NewRepository(conn),
		Stores:       storeSvc,
		Gateway:      gateway,
		Mailer:       mail,
		Logger:       logger.Nop(),
		ClientSecret: clientSecret,
	})
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc, mail: mail, gateway: gateway, store: store, order: order}
}

func (f fixture) reload(t *testing.T) models.Order {
	t.Helper()
	var got models.Order
	require.NoError(t, f.conn.First(&got, "id = ?", f.order.ID).Error)
	return got
}

func (f fixture) webhook(status enums.PaymentStatus, method string) Confirmation {
	return Confirmation{
		Source:            enums.ConfirmationSourceWebhook,
		OrderID:           f.order.ID,
		GatewayPaymentRef: "pay_Ab1",
		Status:            status,
		PaymentMethod:     method,
	}
}

func (f fixture) verification() ClientVerification {
	return ClientVerification{
		OrderRef:   *f.order.GatewayOrderRef,
		PaymentRef: "pay_Ab1",
		Signature:  signature.SignPayment(clientSecret, *f.order.GatewayOrderRef, "pay_Ab1"),
	}
}

func TestCapturedWebhookMarksOrderPaid(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ApplyPaymentConfirmation(context.Background(), f.webhook(enums.PaymentStatusCaptured, "upi"))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Outcome)
	assert.True(t, res.Transitioned)

	got := f.reload(t)
	assert.True(t, got.Paid)
	assert.Equal(t, enums.OrderStatusProcessing, got.OrderStatus)
	assert.Equal(t, "upi", got.PaymentMethod)
	require.NotNil(t, got.PaidAt)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "asha@example.com", f.mail.sent[0].ToEmail)
	assert.Contains(t, f.mail.sent[0].Subject, "Test Store")
	assert.Contains(t, f.mail.sent[0].Text, "2500.00 INR")
}

func TestDuplicateWebhookIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyPaymentConfirmation(ctx, f.webhook(enums.PaymentStatusCaptured, "card"))
	require.NoError(t, err)
	first := f.reload(t)

	res, err := f.svc.ApplyPaymentConfirmation(ctx, f.webhook(enums.PaymentStatusCaptured, "card"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, res.Outcome)
	assert.False(t, res.Transitioned)

	second := f.reload(t)
	assert.Equal(t, first.Paid, second.Paid)
	assert.Equal(t, first.OrderStatus, second.OrderStatus)
	assert.Equal(t, first.PaymentMethod, second.PaymentMethod)
	assert.Len(t, f.mail.sent, 1, "email is only sent on the transition")
}

func TestNonCapturedWebhookLeavesOrderPending(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ApplyPaymentConfirmation(context.Background(), f.webhook(enums.PaymentStatusFailed, "card"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotCaptured, res.Outcome)

	got := f.reload(t)
	assert.False(t, got.Paid)
	assert.Equal(t, enums.OrderStatusPending, got.OrderStatus)
	assert.Equal(t, "card", got.PaymentMethod)
	assert.Empty(t, f.mail.sent)
}

func TestNonCapturedAfterPaidChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyPaymentConfirmation(ctx, f.webhook(enums.PaymentStatusCaptured, "upi"))
	require.NoError(t, err)
	res, err := f.svc.ApplyPaymentConfirmation(ctx, f.webhook(enums.PaymentStatusFailed, "card"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, res.Outcome)

	got := f.reload(t)
	assert.True(t, got.Paid)
	assert.Equal(t, "upi", got.PaymentMethod)
}

func TestWebhookThenClientConverges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyPaymentConfirmation(ctx, f.webhook(enums.PaymentStatusCaptured, "upi"))
	require.NoError(t, err)
	res, err := f.svc.VerifyClient(ctx, f.verification())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, res.Status)
	assert.Equal(t, f.order.ID, res.OrderID)

	got := f.reload(t)
	assert.True(t, got.Paid)
	assert.Equal(t, enums.OrderStatusProcessing, got.OrderStatus)
	assert.Equal(t, "upi", got.PaymentMethod)
	assert.Len(t, f.mail.sent, 1)
}

func TestClientThenWebhookConverges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gateway.FetchErr = errors.New("timeout")

	res, err := f.svc.VerifyClient(ctx, f.verification())
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Status)
	assert.Empty(t, f.reload(t).PaymentMethod, "method stays empty when the lookup fails")

	_, err = f.svc.ApplyPaymentConfirmation(ctx, f.webhook(enums.PaymentStatusCaptured, "upi"))
	require.NoError(t, err)

	got := f.reload(t)
	assert.True(t, got.Paid)
	assert.Equal(t, enums.OrderStatusProcessing, got.OrderStatus)
	assert.Equal(t, "upi", got.PaymentMethod, "webhook fills the missing method")
	require.NotNil(t, got.ConfirmedBy)
	assert.Equal(t, enums.ConfirmationSourceClient, *got.ConfirmedBy)
	assert.Len(t, f.mail.sent, 1)
}

func TestVerifyClientUsesGatewayMethod(t *testing.T) {
	f := newFixture(t)
	f.gateway.Methods["pay_Ab1"] = "netbanking"

	_, err := f.svc.VerifyClient(context.Background(), f.verification())
	require.NoError(t, err)
	assert.Equal(t, "netbanking", f.reload(t).PaymentMethod)
}

func TestVerifyClientRejectsBadSignatures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	swapped := f.verification()
	swapped.Signature = signature.SignPayment(clientSecret, "pay_Ab1", *f.order.GatewayOrderRef)
	_, err := f.svc.VerifyClient(ctx, swapped)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSignatureInvalid), "got %v", err)

	_, err = f.svc.VerifyClient(ctx, ClientVerification{OrderRef: "order_Nx1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMissingParameters), "got %v", err)
	details := pkgerrors.As(err).Details().([]pkgerrors.FieldError)
	assert.Len(t, details, 2)

	assert.False(t, f.reload(t).Paid)
}

func TestVerifyClientAcceptsLocalOrderID(t *testing.T) {
	f := newFixture(t)
	in := f.verification()
	in.OrderRef = ""
	in.OrderID = f.order.ID.String()

	res, err := f.svc.VerifyClient(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Status)
}

func TestVerifyClientRejectsSignatureForAnotherGatewayOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := ClientVerification{
		OrderRef:   "order_OtherCheap",
		OrderID:    f.order.ID.String(),
		PaymentRef: "pay_cheap",
		Signature:  signature.SignPayment(clientSecret, "order_OtherCheap", "pay_cheap"),
	}
	_, err := f.svc.VerifyClient(ctx, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSignatureInvalid), "got %v", err)

	got := f.reload(t)
	assert.False(t, got.Paid)
	assert.Equal(t, enums.OrderStatusPending, got.OrderStatus)
	assert.Empty(t, f.mail.sent)
}

func TestVerifyClientRequiresSecret(t *testing.T) {
	f := newFixture(t)
	storeSvc, _ := stores.NewService(stores.NewRepository(f.conn))
	svc, err := NewService(ServiceParams{Orders: orders.NewRepository(f.conn), Stores: storeSvc, Logger: logger.Nop()})
	require.NoError(t, err)

	_, err = svc.VerifyClient(context.Background(), f.verification())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstreamConfig), "got %v", err)
}

func TestResolveOrderFallsBackToLocalID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.ResolveOrder(ctx, "order_unknown", f.order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, got.ID)

	_, err = f.svc.ResolveOrder(ctx, "order_unknown", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderNotFound), "got %v", err)
}

func TestConfirmManual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmManual(ctx, uuid.New(), f.order.ID, "cash")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderNotFound), "other store: got %v", err)

	res, err := f.svc.ConfirmManual(ctx, f.store.ID, f.order.ID, "cash")
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, res.Outcome)
	assert.Equal(t, "cash", res.Order.PaymentMethod)
	require.NotNil(t, res.Order.ConfirmedBy)
	assert.Equal(t, enums.ConfirmationSourceAdmin, *res.Order.ConfirmedBy)
}

func TestMailFailureDoesNotFailConfirmation(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("sendgrid down")

	res, err := f.svc.ApplyPaymentConfirmation(context.Background(), f.webhook(enums.PaymentStatusCaptured, "upi"))
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.True(t, f.reload(t).Paid)
}
