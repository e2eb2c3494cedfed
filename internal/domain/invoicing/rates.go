package invoicing

import (
	"context"
	"fmt"
	"strings"

	"serio/internal/core/types"
)

// StaticRates is a RateProvider backed by a fixed table, keyed "FROM/TO".
// Suitable for development and tests; production wires a real rate feed.
type StaticRates struct {
	rates map[string]types.Money
}

// NewStaticRates creates a provider from a rate table.
func NewStaticRates(rates map[string]types.Money) *StaticRates {
	normalized := make(map[string]types.Money, len(rates))
	for k, v := range rates {
		normalized[strings.ToUpper(k)] = v
	}
	return &StaticRates{rates: normalized}
}

// DefaultRates covers the currency pairs the dashboard displays.
func DefaultRates() *StaticRates {
	return NewStaticRates(map[string]types.Money{
		"EUR/USD": types.MustMoney("1.08"),
		"USD/EUR": types.MustMoney("0.93"),
		"EUR/GBP": types.MustMoney("0.85"),
		"GBP/EUR": types.MustMoney("1.17"),
	})
}

// Rate returns the multiplier for the from/to pair, identity for equal
// currencies.
func (s *StaticRates) Rate(_ context.Context, from, to string) (types.Money, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return types.MustMoney("1"), nil
	}
	if rate, ok := s.rates[from+"/"+to]; ok {
		return rate, nil
	}
	return types.Zero(), fmt.Errorf("no rate for %s/%s", from, to)
}
