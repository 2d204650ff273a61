package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"homestay/internal/domain"
	"homestay/internal/events"
	"homestay/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stage is the position of the checkout panel.
type Stage string

const (
	StageReview     Stage = "review"
	StagePayment    Stage = "payment"
	StageProcessing Stage = "processing"
	StageSuccess    Stage = "success"
)

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("payment is already being processed")
	ErrNotInPayment       = errors.New("checkout is not at the payment step")
	ErrCardHolderRequired = errors.New("card holder is required")
	ErrCardNumberRequired = errors.New("card number is required")
)

// PaymentDetails is what the payment form submits.
type PaymentDetails struct {
	CardHolder string `json:"card_holder"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"cvc"`
}

func (d PaymentDetails) validate() error {
	if strings.TrimSpace(d.CardHolder) == "" {
		return ErrCardHolderRequired
	}
	if normalizeCard(d.CardNumber) == "" {
		return ErrCardNumberRequired
	}
	return nil
}

// Flow drives review → payment → processing → success → review.
// The processing stage doubles as a guard against a second submit.
type Flow struct {
	cart     domain.CartService
	gateway  PaymentGateway
	receipts *ReceiptBook
	eventBus domain.EventPublisher
	currency string
	logger   *zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex
	stage Stage
}

func NewFlow(
	cart domain.CartService,
	gateway PaymentGateway,
	receipts *ReceiptBook,
	eventBus domain.EventPublisher,
	currency string,
	logger *zerolog.Logger,
) *Flow {
	if receipts == nil {
		receipts = NewReceiptBook()
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &Flow{
		cart:     cart,
		gateway:  gateway,
		receipts: receipts,
		eventBus: eventBus,
		currency: currency,
		logger:   logger,
		now:      time.Now,
		stage:    StageReview,
	}
}

func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

func (f *Flow) Receipts() *ReceiptBook {
	return f.receipts
}

// Begin opens the payment form. It is a no-op returning ErrCartEmpty when
// the cart has no items.
func (f *Flow) Begin() (Stage, error) {
	f.mu.Lock()
	switch f.stage {
	case StageProcessing:
		f.mu.Unlock()
		return StageProcessing, ErrCheckoutInProgress
	case StagePayment:
		f.mu.Unlock()
		return StagePayment, nil
	}

	count := f.cart.Count()
	if count == 0 {
		stage := f.stage
		f.mu.Unlock()
		return stage, ErrCartEmpty
	}
	f.stage = StagePayment
	f.mu.Unlock()

	f.publish(events.EventCheckoutStarted, events.CheckoutEventPayload{
		Items:    count,
		Total:    f.cart.Total(),
		Currency: f.currency,
	})
	return StagePayment, nil
}

// Back returns from the payment form to the cart review.
func (f *Flow) Back() (Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage == StageProcessing {
		return f.stage, ErrCheckoutInProgress
	}
	f.stage = StageReview
	return f.stage, nil
}

// Reset closes the panel, as closing the cart sidebar does. A payment in
// flight is left alone.
func (f *Flow) Reset() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage != StageProcessing {
		f.stage = StageReview
	}
	return f.stage
}

// Submit charges the whole cart. The cart is held for the duration of the
// charge, so bookings cannot be added or removed mid-payment. On success the
// cart is cleared, a receipt is recorded and the flow returns to review. On
// failure the cart is kept and the flow returns to the payment form.
func (f *Flow) Submit(ctx context.Context, details PaymentDetails) (Receipt, error) {
	f.mu.Lock()
	switch f.stage {
	case StageProcessing:
		f.mu.Unlock()
		return Receipt{}, ErrCheckoutInProgress
	case StagePayment:
	default:
		f.mu.Unlock()
		return Receipt{}, ErrNotInPayment
	}

	if err := details.validate(); err != nil {
		f.mu.Unlock()
		return Receipt{}, err
	}

	items, err := f.cart.Hold()
	if err != nil {
		f.mu.Unlock()
		return Receipt{}, err
	}
	if len(items) == 0 {
		_ = f.cart.Release(ctx, false)
		f.stage = StageReview
		f.mu.Unlock()
		return Receipt{}, ErrCartEmpty
	}
	total := models.Cart(items).Total()
	f.stage = StageProcessing
	f.mu.Unlock()

	f.logger.Info().Int("items", len(items)).Int64("total", total).Msg("processing payment")

	result, err := f.gateway.Charge(ctx, Charge{
		Amount:     total,
		Currency:   f.currency,
		CardHolder: strings.TrimSpace(details.CardHolder),
		CardNumber: details.CardNumber,
		Expiry:     details.Expiry,
		CVC:        details.CVC,
	})
	if err != nil {
		_ = f.cart.Release(ctx, false)
		f.setStage(StagePayment)
		f.logger.Warn().Err(err).Int64("total", total).Msg("payment failed")
		f.publish(events.EventCheckoutFailed, events.CheckoutEventPayload{
			Items:    len(items),
			Total:    total,
			Currency: f.currency,
			Error:    err.Error(),
		})
		return Receipt{}, fmt.Errorf("charge: %w", err)
	}

	f.setStage(StageSuccess)

	receipt := Receipt{
		ID:            uuid.NewString(),
		TransactionID: result.TransactionID,
		CardHolder:    strings.TrimSpace(details.CardHolder),
		CardLast4:     last4(details.CardNumber),
		Items:         items,
		Total:         total,
		Currency:      f.currency,
		PaidAt:        result.ApprovedAt,
	}
	if receipt.PaidAt.IsZero() {
		receipt.PaidAt = f.now()
	}
	f.receipts.Add(receipt)

	// a failed persist must not undo a successful charge
	if err := f.cart.Release(ctx, true); err != nil {
		f.logger.Error().Err(err).Str("receipt_id", receipt.ID).Msg("cart clear after payment failed")
	}

	f.publish(events.EventCheckoutCompleted, events.CheckoutEventPayload{
		ReceiptID:     receipt.ID,
		TransactionID: receipt.TransactionID,
		Items:         len(items),
		Total:         total,
		Currency:      f.currency,
	})
	f.logger.Info().Str("receipt_id", receipt.ID).Str("transaction_id", receipt.TransactionID).Msg("payment successful")

	f.setStage(StageReview)
	return receipt, nil
}

func (f *Flow) setStage(stage Stage) {
	f.mu.Lock()
	f.stage = stage
	f.mu.Unlock()
}

func (f *Flow) publish(eventType string, payload events.CheckoutEventPayload) {
	if f.eventBus == nil {
		return
	}
	if err := f.eventBus.PublishJSON(eventType, payload); err != nil {
		f.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

func last4(number string) string {
	digits := normalizeCard(number)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}
