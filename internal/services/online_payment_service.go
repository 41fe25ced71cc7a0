package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
)

const onlinePaymentMethod = "online"

// PaymentGateway creates and reads checkout orders.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]string) (*models.GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*models.GatewayOrder, error)
}

// RazorpayGateway is the PaymentGateway backed by the Razorpay API.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string, notes map[string]string) (*models.GatewayOrder, error) {
	noteData := make(map[string]interface{}, len(notes))
	for k, v := range notes {
		noteData[k] = v
	}
	order, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
		"notes":    noteData,
	}, nil)
	if err != nil {
		return nil, apperr.Dependency("create razorpay order", err)
	}
	return parseOrder(order), nil
}

func (g *RazorpayGateway) FetchOrder(_ context.Context, orderID string) (*models.GatewayOrder, error) {
	order, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, apperr.Dependency("fetch razorpay order", err)
	}
	return parseOrder(order), nil
}

func parseOrder(raw map[string]interface{}) *models.GatewayOrder {
	o := &models.GatewayOrder{Notes: map[string]string{}}
	o.ID, _ = raw["id"].(string)
	o.Amount = paise(raw["amount"])
	o.AmountPaid = paise(raw["amount_paid"])
	if notes, ok := raw["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			o.Notes[k] = fmt.Sprint(v)
		}
	}
	return o
}

// paise reads a JSON number decoded as float64.
func paise(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// OnlinePaymentService takes rent payments through a hosted checkout and
// feeds verified payments to the payment processor.
type OnlinePaymentService struct {
	rents     RentStore
	processor *PaymentProcessor
	gateway   PaymentGateway
	keyID     string
	keySecret string
	logger    *zap.Logger
}

func NewOnlinePaymentService(rents RentStore, processor *PaymentProcessor, gateway PaymentGateway, keyID, keySecret string, logger *zap.Logger) *OnlinePaymentService {
	return &OnlinePaymentService{
		rents:     rents,
		processor: processor,
		gateway:   gateway,
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logger.Named("online_payments"),
	}
}

// Enabled reports whether gateway credentials are configured.
func (s *OnlinePaymentService) Enabled() bool {
	return s.gateway != nil && s.keyID != "" && s.keySecret != ""
}

// CreateOrder opens a checkout order for what is still owed on the record.
func (s *OnlinePaymentService) CreateOrder(ctx context.Context, adminID int, rentID uuid.UUID) (*models.CreateOrderResponse, error) {
	if !s.Enabled() {
		return nil, apperr.Dependency("online payments are not configured", nil)
	}
	rec, err := s.rents.Get(ctx, adminID, rentID)
	if err != nil {
		return nil, err
	}
	remaining := rec.Remaining()
	if !remaining.IsPositive() {
		return nil, apperr.Validation("rent record %s is already paid", rentID)
	}

	amountPaise := remaining.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	order, err := s.gateway.CreateOrder(ctx, amountPaise, "rent_"+rec.ID.String()[:8], map[string]string{
		"rent_id":  rec.ID.String(),
		"admin_id": strconv.Itoa(adminID),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Int("admin_id", adminID),
		zap.String("rent_id", rec.ID.String()),
		zap.String("order_id", order.ID),
		zap.Int64("amount_paise", amountPaise))
	return &models.CreateOrderResponse{
		OrderID:     order.ID,
		RentID:      rec.ID,
		Amount:      amountPaise,
		Currency:    "INR",
		KeyID:       s.keyID,
		TenantName:  rec.TenantName,
		TenantPhone: rec.TenantPhone,
	}, nil
}

// VerifyPayment checks the checkout signature and applies the paid amount
// to the record the order was opened for. Verifying the same payment twice
// returns the record without paying again.
func (s *OnlinePaymentService) VerifyPayment(ctx context.Context, adminID int, req *models.VerifyPaymentRequest) (*models.PaymentResult, error) {
	if !s.verifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return nil, apperr.Validation("invalid payment signature")
	}

	order, err := s.gateway.FetchOrder(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	if order.Notes["admin_id"] != strconv.Itoa(adminID) {
		return nil, apperr.Unauthorized("order %s belongs to another admin", req.RazorpayOrderID)
	}
	rentID, err := uuid.Parse(order.Notes["rent_id"])
	if err != nil {
		return nil, apperr.Validation("order %s is not a rent order", req.RazorpayOrderID)
	}

	rec, err := s.rents.Get(ctx, adminID, rentID)
	if err != nil {
		return nil, err
	}
	for _, p := range rec.PaymentHistory {
		if p.Method == onlinePaymentMethod && p.Reference == req.RazorpayPaymentID {
			return &models.PaymentResult{Rent: rec}, nil
		}
	}

	paid := order.AmountPaid
	if paid == 0 {
		paid = order.Amount
	}
	return s.processor.Apply(ctx, rec, models.PaymentInput{
		Amount:    decimal.New(paid, -2),
		Method:    onlinePaymentMethod,
		Reference: req.RazorpayPaymentID,
		Notes:     "razorpay order " + req.RazorpayOrderID,
	})
}

func (s *OnlinePaymentService) verifySignature(orderID, paymentID, signature string) bool {
	if s.keySecret == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(s.keySecret, orderID, paymentID)), []byte(signature))
}

// Sign computes the checkout signature for an order and payment.
func Sign(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}
