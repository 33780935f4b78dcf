package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGateway struct {
	orderID string
	err     error
	amount  int64
}

func (s *stubGateway) CreateOrder(amountMinor int64, currency, receipt string) (string, error) {
	s.amount = amountMinor
	return s.orderID, s.err
}

func testPayments() *PaymentService {
	return &PaymentService{
		Currency:       "USD",
		Bank:           BankDetails{BankName: "Test Bank", AccountName: "Academy", IBAN: "DZ00TEST"},
		WhatsAppNumber: "+213 555 12 34 56",
		TierPrices:     map[models.MembershipTier]float64{models.TierPro: 19, models.TierVIP: 39},
		MembershipDays: 30,
	}
}

func fillCart(t *testing.T, db *gorm.DB, clientID string, courseIDs ...string) {
	t.Helper()
	for _, id := range courseIDs {
		require.NoError(t, db.Create(&models.CartItem{ClientID: clientID, CourseID: id}).Error)
	}
}

func TestCheckoutCart_BankTransferThenApproval(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	c1 := createCourse(t, db, "go101", 2)
	createCourse(t, db, "py101", 1)
	fillCart(t, db, "amal", "go101", "py101")

	res, err := testPayments().CheckoutCart(ctx, db, "amal", models.PaymentBankTransfer)
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.Total)
	require.NotNil(t, res.Bank)
	assert.Equal(t, res.CheckoutRef, res.Bank.Reference)
	assert.Equal(t, "DZ00TEST", res.Bank.IBAN)

	assert.Equal(t, int64(2), countRows(t, db, &models.Payment{}, "checkout_ref = ? AND status = ?", res.CheckoutRef, models.PaymentPending))
	assert.Equal(t, int64(2), countRows(t, db, &models.Purchase{}, "client_id = ? AND paid = ?", "amal", false))

	learner := learnerFor(t, db, "amal")
	s, err := CourseLessonAccess(ctx, db, learner, c1.Lessons[0].ID)
	require.NoError(t, err)
	assert.False(t, s.Decision.Unlocked)

	admin := "admin-1"
	changed, err := ReconcileCheckout(ctx, db, res.CheckoutRef, ReconcileInput{ReviewedBy: &admin})
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, int64(2), countRows(t, db, &models.Purchase{}, "client_id = ? AND paid = ?", "amal", true))
	assert.Zero(t, countRows(t, db, &models.CartItem{}, "client_id = ?", "amal"))

	s, err = CourseLessonAccess(ctx, db, learner, c1.Lessons[1].ID)
	require.NoError(t, err)
	assert.True(t, s.Decision.Unlocked)

	changed, err = ReconcileCheckout(ctx, db, res.CheckoutRef, ReconcileInput{})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCheckoutCart_Gateway(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	createCourse(t, db, "go101", 1)
	fillCart(t, db, "amal", "go101")

	gw := &stubGateway{orderID: "order_123"}
	svc := testPayments()
	svc.Gateway = gw
	svc.GatewayKeyID = "rzp_test"

	res, err := svc.CheckoutCart(ctx, db, "amal", models.PaymentGateway)
	require.NoError(t, err)
	require.NotNil(t, res.Gateway)
	assert.Equal(t, "order_123", res.Gateway.OrderID)
	assert.Equal(t, int64(2000), res.Gateway.Amount)
	assert.Equal(t, int64(2000), gw.amount)
	assert.Equal(t, "rzp_test", res.Gateway.KeyID)

	changed, err := ReconcileGatewayOrder(ctx, db, "order_123", ReconcileInput{GatewayPaymentID: "pay_1", Payload: []byte(`{"event":"payment.captured"}`)})
	require.NoError(t, err)
	assert.True(t, changed)

	var p models.Payment
	require.NoError(t, db.Where("gateway_order_id = ?", "order_123").First(&p).Error)
	assert.Equal(t, models.PaymentPaid, p.Status)
	assert.Equal(t, "pay_1", p.GatewayPaymentID)
	assert.NotNil(t, p.PaidAt)

	_, err = ReconcileGatewayOrder(ctx, db, "order_unknown", ReconcileInput{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCheckoutCart_GatewayUnavailable(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	createCourse(t, db, "go101", 1)
	fillCart(t, db, "amal", "go101")

	_, err := testPayments().CheckoutCart(ctx, db, "amal", models.PaymentGateway)
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
	assert.Equal(t, int64(1), countRows(t, db, &models.Payment{}, "client_id = ? AND status = ?", "amal", models.PaymentFailed))

	svc := testPayments()
	svc.Gateway = &stubGateway{err: errors.New("boom")}
	_, err = svc.CheckoutCart(ctx, db, "amal", models.PaymentGateway)
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

func TestCheckoutCart_Rejections(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	createCourse(t, db, "go101", 1)
	svc := testPayments()

	_, err := svc.CheckoutCart(ctx, db, "amal", models.PaymentBankTransfer)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))

	_, err = svc.CheckoutCart(ctx, db, "amal", models.PaymentMethod("cash"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))

	now := time.Now()
	require.NoError(t, db.Create(&models.Purchase{ClientID: "amal", CourseID: "go101", Paid: true, PaidAt: &now}).Error)
	fillCart(t, db, "amal", "go101")
	_, err = svc.CheckoutCart(ctx, db, "amal", models.PaymentBankTransfer)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestCheckoutCart_FreeCourseIsGrantedImmediately(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	createCourse(t, db, "intro", 1)
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", "intro").Update("price", 0).Error)
	fillCart(t, db, "amal", "intro")

	res, err := testPayments().CheckoutCart(ctx, db, "amal", models.PaymentWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, res.Status)
	assert.Empty(t, res.WhatsAppURL)
	assert.Equal(t, int64(1), countRows(t, db, &models.Purchase{}, "client_id = ? AND paid = ?", "amal", true))
}

func TestRejectCheckout(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	createCourse(t, db, "go101", 1)
	fillCart(t, db, "amal", "go101")

	res, err := testPayments().CheckoutCart(ctx, db, "amal", models.PaymentWhatsApp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.WhatsAppURL, "https://wa.me/213555123456?text="))

	require.NoError(t, RejectCheckout(ctx, db, res.CheckoutRef, "admin-1", "receipt unreadable"))

	_, err = ReconcileCheckout(ctx, db, res.CheckoutRef, ReconcileInput{})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Zero(t, countRows(t, db, &models.Purchase{}, "paid = ?", true))

	err = RejectCheckout(ctx, db, res.CheckoutRef, "admin-1", "again")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCheckoutMembership_GrantAndRenew(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	svc := testPayments()

	_, err := svc.CheckoutMembership(ctx, db, "amal", models.TierFree, models.PaymentBankTransfer)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))

	res, err := svc.CheckoutMembership(ctx, db, "amal", models.TierPro, models.PaymentBankTransfer)
	require.NoError(t, err)
	assert.Equal(t, 19.0, res.Total)

	var u models.User
	require.NoError(t, db.First(&u, "id = ?", "amal").Error)
	assert.Equal(t, models.MembershipPending, u.MembershipStatus)
	assert.Equal(t, models.TierFree, u.EffectiveTier(time.Now()))

	_, err = ReconcileCheckout(ctx, db, res.CheckoutRef, ReconcileInput{})
	require.NoError(t, err)

	require.NoError(t, db.First(&u, "id = ?", "amal").Error)
	assert.Equal(t, models.MembershipActive, u.MembershipStatus)
	assert.Equal(t, models.TierPro, u.EffectiveTier(time.Now()))
	require.NotNil(t, u.MembershipExpiresAt)
	firstExpiry := *u.MembershipExpiresAt
	assert.True(t, firstExpiry.After(time.Now().AddDate(0, 0, 29)))

	// renewing the same tier extends from the current expiry
	res, err = svc.CheckoutMembership(ctx, db, "amal", models.TierPro, models.PaymentBankTransfer)
	require.NoError(t, err)
	_, err = ReconcileCheckout(ctx, db, res.CheckoutRef, ReconcileInput{})
	require.NoError(t, err)

	require.NoError(t, db.First(&u, "id = ?", "amal").Error)
	assert.True(t, u.MembershipExpiresAt.After(firstExpiry.AddDate(0, 0, 29)))
}

func TestRejectMembershipCheckout_ResetsPendingStatus(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)

	res, err := testPayments().CheckoutMembership(ctx, db, "amal", models.TierVIP, models.PaymentWhatsApp)
	require.NoError(t, err)
	require.NoError(t, RejectCheckout(ctx, db, res.CheckoutRef, "admin-1", "no transfer"))

	var u models.User
	require.NoError(t, db.First(&u, "id = ?", "amal").Error)
	assert.Equal(t, models.MembershipNone, u.MembershipStatus)
}

func TestExpireMemberships(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "active", models.RoleClient, models.TierVIP)
	lapsed := createUser(t, db, "lapsed", models.RoleClient, models.TierPro)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&lapsed).Update("membership_expires_at", past).Error)

	n, err := ExpireMemberships(ctx, db, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var u models.User
	require.NoError(t, db.First(&u, "id = ?", "lapsed").Error)
	assert.Equal(t, models.MembershipExpired, u.MembershipStatus)
	assert.Equal(t, models.TierFree, u.MembershipTier)

	var active models.User
	require.NoError(t, db.First(&active, "id = ?", "active").Error)
	assert.Equal(t, models.TierVIP, active.MembershipTier)
}

func TestAttachReceipt(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	createCourse(t, db, "go101", 1)
	fillCart(t, db, "amal", "go101")

	res, err := testPayments().CheckoutCart(ctx, db, "amal", models.PaymentBankTransfer)
	require.NoError(t, err)

	require.NoError(t, AttachReceipt(ctx, db, "amal", res.CheckoutRef, "https://cdn.example/receipts/a.png"))
	assert.Equal(t, int64(1), countRows(t, db, &models.Payment{}, "receipt_url = ?", "https://cdn.example/receipts/a.png"))

	err = AttachReceipt(ctx, db, "someone-else", res.CheckoutRef, "https://cdn.example/x.png")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRazorpaySignatures(t *testing.T) {
	gw := NewRazorpayGateway("rzp_test", "key_secret", "hook_secret")
	require.NotNil(t, gw)

	sig := hmacHex("key_secret", []byte("order_1|pay_1"))
	assert.True(t, gw.VerifyPaymentSignature("order_1", "pay_1", sig))
	assert.False(t, gw.VerifyPaymentSignature("order_1", "pay_2", sig))

	body := []byte(`{"event":"payment.captured"}`)
	assert.True(t, gw.VerifyWebhookSignature(body, hmacHex("hook_secret", body)))
	assert.False(t, gw.VerifyWebhookSignature(body, hmacHex("key_secret", body)))

	assert.Nil(t, NewRazorpayGateway("", "", ""))
}
