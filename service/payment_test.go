package service

import (
	"context"
	"testing"
	"time"

	"github.com/ravicodry/dastaavej/config"
)

func TestSimulatedGatewayCharge(t *testing.T) {
	gateway := NewSimulatedGateway(&config.PaymentConfig{DelayMs: 10})

	start := time.Now()
	receipt, err := gateway.Charge(context.Background(), 9900)
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}

	if receipt.ID == "" {
		t.Error("Expected receipt id")
	}
	if receipt.AmountPaise != 9900 {
		t.Errorf("Expected amount 9900, got %d", receipt.AmountPaise)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Expected charge to take at least the configured delay")
	}
}

func TestSimulatedGatewayCancelled(t *testing.T) {
	gateway := NewSimulatedGateway(&config.PaymentConfig{DelayMs: 5000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gateway.Charge(ctx, 9900); err == nil {
		t.Error("Expected error on cancelled context")
	}
}
