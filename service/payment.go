package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ravicodry/dastaavej/config"
)

// Receipt is proof of a completed charge.
type Receipt struct {
	ID          string    `json:"id"`
	AmountPaise int       `json:"amount_paise"`
	ChargedAt   time.Time `json:"charged_at"`
}

// PaymentGateway is the boundary a real payment processor would plug into.
type PaymentGateway interface {
	Charge(ctx context.Context, amountPaise int) (*Receipt, error)
}

// SimulatedGateway approves every charge after a fixed delay. No real money
// moves; it exists so the unlock flow exercises the same boundary a real
// processor would.
type SimulatedGateway struct {
	delay time.Duration
}

func NewSimulatedGateway(cfg *config.PaymentConfig) *SimulatedGateway {
	return &SimulatedGateway{
		delay: time.Duration(cfg.DelayMs) * time.Millisecond,
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, amountPaise int) (*Receipt, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(g.delay):
	}

	return &Receipt{
		ID:          uuid.New().String(),
		AmountPaise: amountPaise,
		ChargedAt:   time.Now(),
	}, nil
}
