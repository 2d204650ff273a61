package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPaymentDeclined = errors.New("payment declined")
	ErrInvalidAmount   = errors.New("charge amount must be positive")
)

// Charge is a single payment request for the whole cart.
type Charge struct {
	Amount     int64
	Currency   string
	CardHolder string
	CardNumber string
	Expiry     string
	CVC        string
}

// PaymentResult is returned by a gateway for an approved charge.
type PaymentResult struct {
	TransactionID string
	ApprovedAt    time.Time
}

// PaymentGateway charges a card. Implementations must honor ctx.
type PaymentGateway interface {
	Charge(ctx context.Context, charge Charge) (PaymentResult, error)
}

// SimulatedGateway approves every charge after a fixed processing delay,
// except cards listed as declined.
type SimulatedGateway struct {
	delay    time.Duration
	declined map[string]bool
	now      func() time.Time
}

func NewSimulatedGateway(delay time.Duration, declinedCards []string) *SimulatedGateway {
	if delay < 0 {
		delay = 0
	}
	declined := make(map[string]bool, len(declinedCards))
	for _, card := range declinedCards {
		declined[normalizeCard(card)] = true
	}
	return &SimulatedGateway{delay: delay, declined: declined, now: time.Now}
}

func (g *SimulatedGateway) Charge(ctx context.Context, charge Charge) (PaymentResult, error) {
	if charge.Amount <= 0 {
		return PaymentResult{}, ErrInvalidAmount
	}

	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return PaymentResult{}, ctx.Err()
	case <-timer.C:
	}

	if g.declined[normalizeCard(charge.CardNumber)] {
		return PaymentResult{}, ErrPaymentDeclined
	}

	return PaymentResult{
		TransactionID: uuid.NewString(),
		ApprovedAt:    g.now(),
	}, nil
}

func normalizeCard(number string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
}
