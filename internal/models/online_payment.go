package models

import "github.com/google/uuid"

// CreateOrderResponse is returned to the frontend for Razorpay checkout
type CreateOrderResponse struct {
	OrderID     string    `json:"order_id"`
	RentID      uuid.UUID `json:"rent_id"`
	Amount      int64     `json:"amount"` // In paise
	Currency    string    `json:"currency"`
	KeyID       string    `json:"key_id"`
	TenantName  string    `json:"tenant_name"`
	TenantPhone string    `json:"tenant_phone"`
}

// VerifyPaymentRequest is sent by the frontend after the Razorpay callback
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// GatewayOrder is the part of a Razorpay order the payment flow reads back.
type GatewayOrder struct {
	ID         string
	Amount     int64 // paise
	AmountPaid int64 // paise
	Notes      map[string]string
}
