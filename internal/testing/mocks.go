package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/kabumemo/kabumemo/internal/domain"
)

// MockPriceProvider serves canned daily closes keyed by ticker.
type MockPriceProvider struct {
	mu     sync.RWMutex
	closes map[string][]domain.PricePoint
	err    error
	calls  []string
}

// NewMockPriceProvider creates a new mock price provider
func NewMockPriceProvider() *MockPriceProvider {
	return &MockPriceProvider{
		closes: make(map[string][]domain.PricePoint),
	}
}

// SetCloses sets the series returned for symbol
func (m *MockPriceProvider) SetCloses(symbol string, points []domain.PricePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes[symbol] = points
}

// SetError makes every call fail with err
func (m *MockPriceProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the symbols requested so far, in order
func (m *MockPriceProvider) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// DailyCloses returns the canned series for symbol
func (m *MockPriceProvider) DailyCloses(ctx context.Context, symbol string, period string) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, symbol)
	if m.err != nil {
		return nil, m.err
	}
	return m.closes[symbol], nil
}

// LatestClose returns the last canned close for symbol, or ok=false when none exist
func (m *MockPriceProvider) LatestClose(ctx context.Context, symbol string) (domain.PricePoint, bool, error) {
	points, err := m.DailyCloses(ctx, symbol, "5d")
	if err != nil {
		return domain.PricePoint{}, false, fmt.Errorf("latest close for %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return domain.PricePoint{}, false, nil
	}
	return points[len(points)-1], true, nil
}
