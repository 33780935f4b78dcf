package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
	razorpay "github.com/razorpay/razorpay-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderCreator opens an order on the payment gateway and returns its id.
type OrderCreator interface {
	CreateOrder(amountMinor int64, currency, receipt string) (string, error)
}

// RazorpayGateway wraps the Razorpay client and its two signature schemes.
type RazorpayGateway struct {
	client        *razorpay.Client
	KeyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	if keyID == "" || keySecret == "" {
		return nil
	}
	return &RazorpayGateway{
		client:        razorpay.NewClient(keyID, keySecret),
		KeyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

func (g *RazorpayGateway) CreateOrder(amountMinor int64, currency, receipt string) (string, error) {
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return "", err
	}
	orderID, _ := body["id"].(string)
	if orderID == "" {
		return "", errors.New("gateway returned no order id")
	}
	return orderID, nil
}

func hmacHex(secret string, data []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyPaymentSignature checks the checkout callback signature over
// "order_id|payment_id".
func (g *RazorpayGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	expected := hmacHex(g.keySecret, []byte(orderID+"|"+paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks X-Razorpay-Signature over the raw body.
func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.webhookSecret == "" {
		return false
	}
	expected := hmacHex(g.webhookSecret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

type BankDetails struct {
	BankName    string `json:"bankName"`
	AccountName string `json:"accountName"`
	IBAN        string `json:"iban"`
	Reference   string `json:"reference"`
}

type GatewayOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type CheckoutResult struct {
	CheckoutRef string               `json:"checkoutRef"`
	Method      models.PaymentMethod `json:"method"`
	Total       float64              `json:"total"`
	Currency    string               `json:"currency"`
	Status      models.PaymentStatus `json:"status"`
	Gateway     *GatewayOrder        `json:"gateway,omitempty"`
	Bank        *BankDetails         `json:"bank,omitempty"`
	WhatsAppURL string               `json:"whatsappUrl,omitempty"`
}

// PaymentService creates checkouts and reconciles them once paid.
type PaymentService struct {
	Gateway        OrderCreator
	GatewayKeyID   string
	Currency       string
	Bank           BankDetails
	WhatsAppNumber string
	TierPrices     map[models.MembershipTier]float64
	MembershipDays int
}

// DefaultPayments is configured by InitServices.
var DefaultPayments *PaymentService

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CheckoutCart turns the client's cart into pending payments and unpaid
// purchases sharing one checkout reference.
func (s *PaymentService) CheckoutCart(ctx context.Context, db *gorm.DB, clientID string, method models.PaymentMethod) (*CheckoutResult, error) {
	if !method.Valid() {
		return nil, apperrors.BadRequest("Unknown payment method")
	}

	var items []models.CartItem
	if err := db.WithContext(ctx).Preload("Course").Where("client_id = ?", clientID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, apperrors.BadRequest("Your cart is empty")
	}

	courseIDs := make([]string, 0, len(items))
	for _, it := range items {
		if !it.Course.IsPublished {
			return nil, apperrors.BadRequest("Course is no longer available: " + it.CourseID)
		}
		courseIDs = append(courseIDs, it.CourseID)
	}

	var paid int64
	if err := db.WithContext(ctx).Model(&models.Purchase{}).
		Where("client_id = ? AND course_id IN ? AND paid = ?", clientID, courseIDs, true).
		Count(&paid).Error; err != nil {
		return nil, fmt.Errorf("check purchases: %w", err)
	}
	if paid > 0 {
		return nil, apperrors.Conflict("Your cart contains a course you already own")
	}

	ref := newCheckoutRef()
	var total float64
	payments := make([]models.Payment, 0, len(items))
	for _, it := range items {
		courseID := it.CourseID
		total += it.Course.Price
		payments = append(payments, models.Payment{
			CheckoutRef: ref,
			ClientID:    clientID,
			Method:      method,
			Kind:        models.PaymentForCourse,
			Status:      models.PaymentPending,
			Amount:      it.Course.Price,
			Currency:    s.Currency,
			CourseID:    &courseID,
		})
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payments).Error; err != nil {
			return err
		}
		for i := range payments {
			paymentID := payments[i].ID
			purchase := models.Purchase{
				ClientID:  clientID,
				CourseID:  *payments[i].CourseID,
				PaymentID: &paymentID,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "client_id"}, {Name: "course_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"payment_id", "updated_at"}),
			}).Create(&purchase).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	return s.finishCheckout(ctx, db, ref, clientID, method, total)
}

// CheckoutMembership creates a single pending membership payment.
func (s *PaymentService) CheckoutMembership(ctx context.Context, db *gorm.DB, clientID string, tier models.MembershipTier, method models.PaymentMethod) (*CheckoutResult, error) {
	if !method.Valid() {
		return nil, apperrors.BadRequest("Unknown payment method")
	}
	price, ok := s.TierPrices[tier]
	if !ok || tier == models.TierFree {
		return nil, apperrors.BadRequest("Unknown membership tier")
	}

	ref := newCheckoutRef()
	payment := models.Payment{
		CheckoutRef: ref,
		ClientID:    clientID,
		Method:      method,
		Kind:        models.PaymentForMembership,
		Status:      models.PaymentPending,
		Amount:      price,
		Currency:    s.Currency,
		Tier:        tier,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND membership_status IN ?", clientID, []models.MembershipStatus{models.MembershipNone, models.MembershipExpired}).
			Update("membership_status", models.MembershipPending).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create membership checkout: %w", err)
	}

	return s.finishCheckout(ctx, db, ref, clientID, method, price)
}

func (s *PaymentService) finishCheckout(ctx context.Context, db *gorm.DB, ref, clientID string, method models.PaymentMethod, total float64) (*CheckoutResult, error) {
	res := &CheckoutResult{
		CheckoutRef: ref,
		Method:      method,
		Total:       total,
		Currency:    s.Currency,
		Status:      models.PaymentPending,
	}

	if total <= 0 {
		if _, err := ReconcileCheckout(ctx, db, ref, ReconcileInput{}); err != nil {
			return nil, err
		}
		res.Status = models.PaymentPaid
		return res, nil
	}

	switch method {
	case models.PaymentGateway:
		if s.Gateway == nil {
			s.markFailed(ctx, db, ref)
			return nil, apperrors.Unavailable("Payment gateway not configured")
		}
		orderID, err := s.Gateway.CreateOrder(minorUnits(total), s.Currency, ref)
		if err != nil {
			logger.Error().Err(err).Str("checkout_ref", ref).Msg("Failed to create gateway order")
			s.markFailed(ctx, db, ref)
			return nil, apperrors.Unavailable("Failed to create payment order")
		}
		if err := db.WithContext(ctx).Model(&models.Payment{}).
			Where("checkout_ref = ?", ref).
			Update("gateway_order_id", orderID).Error; err != nil {
			return nil, fmt.Errorf("store gateway order: %w", err)
		}
		res.Gateway = &GatewayOrder{OrderID: orderID, Amount: minorUnits(total), Currency: s.Currency, KeyID: s.GatewayKeyID}
	case models.PaymentBankTransfer:
		bank := s.Bank
		bank.Reference = ref
		res.Bank = &bank
	case models.PaymentWhatsApp:
		res.WhatsAppURL = WhatsAppLink(s.WhatsAppNumber, ref, total, s.Currency)
	}

	logger.Info().
		Str("user_id", clientID).
		Str("checkout_ref", ref).
		Str("method", string(method)).
		Float64("total", total).
		Msg("Checkout created")
	return res, nil
}

func (s *PaymentService) markFailed(ctx context.Context, db *gorm.DB, ref string) {
	if err := db.WithContext(ctx).Model(&models.Payment{}).
		Where("checkout_ref = ? AND status = ?", ref, models.PaymentPending).
		Update("status", models.PaymentFailed).Error; err != nil {
		logger.Error().Err(err).Str("checkout_ref", ref).Msg("Failed to mark checkout as failed")
	}
}

// WhatsAppLink builds a wa.me link with a prefilled payment message.
func WhatsAppLink(number, ref string, total float64, currency string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	msg := fmt.Sprintf("Hello, I would like to pay for order %s (%.2f %s).", ref, total, currency)
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(msg))
}

func newCheckoutRef() string {
	return "CHK-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

type ReconcileInput struct {
	GatewayPaymentID string
	Payload          []byte
	ReviewedBy       *string
}

// ReconcileCheckout marks every unpaid line of a checkout as paid and applies
// its effects: purchases flip to paid, memberships are granted and the cart is
// cleared. It reports false when there was nothing left to reconcile.
func ReconcileCheckout(ctx context.Context, db *gorm.DB, ref string, in ReconcileInput) (bool, error) {
	var (
		clientID string
		total    float64
		currency string
		changed  bool
	)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payments []models.Payment
		if err := tx.Where("checkout_ref = ?", ref).Find(&payments).Error; err != nil {
			return err
		}
		if len(payments) == 0 {
			return apperrors.NotFound("Checkout not found")
		}

		ts := time.Now()
		var courseIDs []string
		for _, p := range payments {
			if p.Status == models.PaymentPaid {
				continue
			}
			if p.Status == models.PaymentRejected {
				return apperrors.Conflict("Checkout was rejected")
			}

			updates := map[string]interface{}{
				"status":  models.PaymentPaid,
				"paid_at": ts,
			}
			if in.GatewayPaymentID != "" {
				updates["gateway_payment_id"] = in.GatewayPaymentID
			}
			if len(in.Payload) > 0 {
				updates["gateway_payload"] = datatypes.JSON(in.Payload)
			}
			if in.ReviewedBy != nil {
				updates["reviewed_by"] = *in.ReviewedBy
			}
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND status <> ?", p.ID, models.PaymentPaid).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			changed = true
			clientID = p.ClientID
			currency = p.Currency
			total += p.Amount

			switch p.Kind {
			case models.PaymentForCourse:
				if p.CourseID == nil {
					continue
				}
				courseIDs = append(courseIDs, *p.CourseID)
				paymentID := p.ID
				purchase := models.Purchase{
					ClientID:  p.ClientID,
					CourseID:  *p.CourseID,
					Paid:      true,
					PaidAt:    &ts,
					PaymentID: &paymentID,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "client_id"}, {Name: "course_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"paid", "paid_at", "payment_id", "updated_at"}),
				}).Create(&purchase).Error; err != nil {
					return err
				}
			case models.PaymentForMembership:
				if err := GrantMembership(tx, p.ClientID, p.Tier, membershipDays(), ts); err != nil {
					return err
				}
			}
		}

		if len(courseIDs) > 0 {
			if err := tx.Where("client_id = ? AND course_id IN ?", clientID, courseIDs).
				Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return false, err
		}
		return false, fmt.Errorf("reconcile checkout: %w", err)
	}

	if changed {
		logger.Info().Str("checkout_ref", ref).Str("user_id", clientID).Float64("total", total).Msg("Checkout reconciled")
		if DefaultMailer != nil && total > 0 {
			go DefaultMailer.NotifyPaymentConfirmed(db, clientID, ref, total, currency)
		}
	}
	return changed, nil
}

// ReconcileGatewayOrder resolves a gateway order id to its checkout.
func ReconcileGatewayOrder(ctx context.Context, db *gorm.DB, orderID string, in ReconcileInput) (bool, error) {
	var p models.Payment
	if err := db.WithContext(ctx).Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.NotFound("Order not found")
		}
		return false, fmt.Errorf("load order: %w", err)
	}
	return ReconcileCheckout(ctx, db, p.CheckoutRef, in)
}

// RejectCheckout closes a manual checkout without granting anything.
func RejectCheckout(ctx context.Context, db *gorm.DB, ref, adminID, note string) error {
	res := db.WithContext(ctx).Model(&models.Payment{}).
		Where("checkout_ref = ? AND status IN ?", ref, []models.PaymentStatus{models.PaymentPending, models.PaymentFailed}).
		Updates(map[string]interface{}{
			"status":      models.PaymentRejected,
			"reviewed_by": adminID,
			"review_note": note,
		})
	if res.Error != nil {
		return fmt.Errorf("reject checkout: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("No pending payment for this reference")
	}

	// a rejected membership checkout leaves the user without a pending tier
	sub := db.Model(&models.Payment{}).Select("client_id").
		Where("checkout_ref = ? AND kind = ?", ref, models.PaymentForMembership)
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("id IN (?) AND membership_status = ?", sub, models.MembershipPending).
		Update("membership_status", models.MembershipNone).Error; err != nil {
		return fmt.Errorf("reset membership status: %w", err)
	}
	return nil
}

// AttachReceipt stores the proof of a manual payment on its checkout.
func AttachReceipt(ctx context.Context, db *gorm.DB, clientID, ref, receiptURL string) error {
	res := db.WithContext(ctx).Model(&models.Payment{}).
		Where("checkout_ref = ? AND client_id = ? AND status = ? AND method <> ?",
			ref, clientID, models.PaymentPending, models.PaymentGateway).
		Update("receipt_url", receiptURL)
	if res.Error != nil {
		return fmt.Errorf("attach receipt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("No pending manual payment for this reference")
	}
	return nil
}

func membershipDays() int {
	if DefaultPayments != nil && DefaultPayments.MembershipDays > 0 {
		return DefaultPayments.MembershipDays
	}
	return 30
}

// GrantMembership activates tier for days. Renewing the current tier extends
// the running period; any other grant starts today. Expiry is the end of the
// last day.
func GrantMembership(tx *gorm.DB, userID string, tier models.MembershipTier, days int, at time.Time) error {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	start := at
	if user.EffectiveTier(at) == tier && user.MembershipExpiresAt != nil && user.MembershipExpiresAt.After(at) {
		start = *user.MembershipExpiresAt
	}
	expires := now.With(start.AddDate(0, 0, days)).EndOfDay()

	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"membership_tier":       tier,
		"membership_status":     models.MembershipActive,
		"membership_expires_at": expires,
	}).Error
}

// ExpireMemberships drops lapsed memberships back to Free. Access checks do
// not depend on it; it keeps the stored status honest.
func ExpireMemberships(ctx context.Context, db *gorm.DB, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.User{}).
		Where("membership_status = ? AND membership_expires_at IS NOT NULL AND membership_expires_at <= ?", models.MembershipActive, at).
		Updates(map[string]interface{}{
			"membership_status": models.MembershipExpired,
			"membership_tier":   models.TierFree,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("expire memberships: %w", res.Error)
	}
	return res.RowsAffected, nil
}
