package server

import (
	"strings"

	"github.com/shopspring/decimal"
)

func parseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(raw, "$")))
}

func parseOptionalDecimal(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseDecimal(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
