package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Money columns are read as text and written as numeric strings so no
// float conversion happens on either side.
func parseMoney(field string, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}

func moneyArg(d decimal.Decimal) string {
	return d.StringFixed(2)
}
