package models

import (
	"time"

	"gorm.io/datatypes"
)

// CartItem is unique per (client, course).
type CartItem struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	ClientID  string    `gorm:"type:text;not null;uniqueIndex:idx_cart_client_course" json:"clientId"`
	CourseID  string    `gorm:"type:text;not null;uniqueIndex:idx_cart_client_course" json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// Purchase grants access to every lesson of a course once Paid is true.
type Purchase struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	ClientID  string     `gorm:"type:text;not null;uniqueIndex:idx_purchase_client_course" json:"clientId"`
	CourseID  string     `gorm:"type:text;not null;uniqueIndex:idx_purchase_client_course" json:"courseId"`
	Paid      bool       `gorm:"default:false" json:"paid"`
	PaymentID *string    `gorm:"type:text" json:"paymentId"`
	PaidAt    *time.Time `json:"paidAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

type PaymentMethod string

const (
	PaymentGateway      PaymentMethod = "gateway"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentWhatsApp     PaymentMethod = "whatsapp"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentGateway || m == PaymentBankTransfer || m == PaymentWhatsApp
}

type PaymentKind string

const (
	PaymentForCourse     PaymentKind = "course"
	PaymentForMembership PaymentKind = "membership"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRejected PaymentStatus = "REJECTED"
)

// Payment is one line of a checkout. All lines of a checkout share CheckoutRef
// and are reconciled together.
type Payment struct {
	ID          string         `gorm:"primaryKey;type:text" json:"id"`
	CheckoutRef string         `gorm:"type:text;index;not null" json:"checkoutRef"`
	ClientID    string         `gorm:"type:text;index;not null" json:"clientId"`
	Method      PaymentMethod  `gorm:"type:text" json:"method"`
	Kind        PaymentKind    `gorm:"type:text" json:"kind"`
	Status      PaymentStatus  `gorm:"type:text;default:'PENDING';index" json:"status"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	CourseID    *string        `gorm:"type:text" json:"courseId"`
	Tier        MembershipTier `json:"tier"`

	GatewayOrderID   string         `gorm:"index" json:"gatewayOrderId"`
	GatewayPaymentID string         `json:"gatewayPaymentId"`
	GatewayPayload   datatypes.JSON `json:"-"`
	ReceiptURL       string         `json:"receiptUrl"`
	ReviewedBy       *string        `json:"reviewedBy"`
	ReviewNote       string         `json:"reviewNote"`

	PaidAt    *time.Time `json:"paidAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	Client User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}
