package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/services"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

const maxReceiptSize = 5 << 20

// manualPaymentsClosed answers 503 when admins switched off bank transfer and
// WhatsApp checkouts.
func manualPaymentsClosed(c *gin.Context, method models.PaymentMethod) bool {
	if method == models.PaymentGateway || !database.IsFeatureDisabled(models.SettingManualPaymentsOpen) {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Manual payments are currently disabled"})
	return true
}

type CheckoutInput struct {
	Method models.PaymentMethod `json:"method" binding:"required,oneof=gateway bank_transfer whatsapp"`
}

// Checkout turns the caller's cart into pending payments and purchases.
func Checkout(c *gin.Context) {
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if manualPaymentsClosed(c, input.Method) {
		return
	}

	result, err := services.DefaultPayments.CheckoutCart(c.Request.Context(), database.DB, c.GetString("userId"), input.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type MembershipCheckoutInput struct {
	Tier   string               `json:"tier" binding:"required,oneof=pro vip"`
	Method models.PaymentMethod `json:"method" binding:"required,oneof=gateway bank_transfer whatsapp"`
}

func MembershipCheckout(c *gin.Context) {
	var input MembershipCheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if manualPaymentsClosed(c, input.Method) {
		return
	}
	tier, _ := models.ParseTier(input.Tier)

	result, err := services.DefaultPayments.CheckoutMembership(c.Request.Context(), database.DB, c.GetString("userId"), tier, input.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type VerifyPaymentInput struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// VerifyPayment is the synchronous confirmation from the checkout widget.
// The webhook may have reconciled the order already; both paths are
// idempotent.
func VerifyPayment(c *gin.Context) {
	var input VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gw := services.DefaultGateway
	if gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment gateway not configured"})
		return
	}
	if !gw.VerifyPaymentSignature(input.RazorpayOrderID, input.RazorpayPaymentID, input.RazorpaySignature) {
		logger.Warn().Str("order_id", input.RazorpayOrderID).Msg("Invalid payment signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	var owned int64
	if err := database.DB.Model(&models.Payment{}).
		Where("gateway_order_id = ? AND client_id = ?", input.RazorpayOrderID, c.GetString("userId")).
		Count(&owned).Error; err != nil {
		respondError(c, err)
		return
	}
	if owned == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	payload, _ := json.Marshal(input)
	changed, err := services.ReconcileGatewayOrder(c.Request.Context(), database.DB, input.RazorpayOrderID, services.ReconcileInput{
		GatewayPaymentID: input.RazorpayPaymentID,
		Payload:          payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "alreadyProcessed": !changed})
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// RazorpayWebhook reconciles captured payments. It answers 2xx for events it
// does not care about so the gateway stops retrying them.
func RazorpayWebhook(c *gin.Context) {
	gw := services.DefaultGateway
	if gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment gateway not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	if !gw.VerifyWebhookSignature(body, c.GetHeader("X-Razorpay-Signature")) {
		logger.Warn().Msg("Rejected webhook with invalid signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	var event razorpayWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	entity := event.Payload.Payment.Entity
	if (event.Event != "payment.captured" && event.Event != "order.paid") || entity.OrderID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	changed, err := services.ReconcileGatewayOrder(c.Request.Context(), database.DB, entity.OrderID, services.ReconcileInput{
		GatewayPaymentID: entity.ID,
		Payload:          body,
	})
	if err != nil {
		logger.Warn().Err(err).Str("order_id", entity.OrderID).Str("event", event.Event).Msg("Webhook reconciliation failed")
		respondError(c, err)
		return
	}

	logger.Info().Str("order_id", entity.OrderID).Bool("changed", changed).Msg("Webhook processed")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var receiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// UploadReceipt stores the proof of a bank transfer or WhatsApp payment for
// an admin to review.
func UploadReceipt(c *gin.Context) {
	if services.DefaultStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage not configured"})
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt file is required"})
		return
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if header.Size > maxReceiptSize || !receiptTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt must be an image or PDF under 5 MB"})
		return
	}

	url, err := services.DefaultStore.Put(c.Request.Context(), services.ObjectKey("receipts", header.Filename), file, contentType)
	if err != nil {
		logger.Error().Err(err).Msg("Receipt upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed"})
		return
	}

	if err := services.AttachReceipt(c.Request.Context(), database.DB, c.GetString("userId"), c.Param("ref"), url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receiptUrl": url})
}

func ListMyPayments(c *gin.Context) {
	var payments []models.Payment
	if err := database.DB.Where("client_id = ?", c.GetString("userId")).
		Order("created_at DESC").
		Limit(100).
		Find(&payments).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
