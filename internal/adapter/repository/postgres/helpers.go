package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/finmodel/internal/infrastructure/postgres/generated"
	"github.com/iho/finmodel/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// queriesFor runs against the transaction when there is one.
func queriesFor(db generated.DBTX, tx usecase.Transaction) *generated.Queries {
	if t, ok := tx.(*Tx); ok && t != nil {
		return generated.New(t.PgxTx())
	}
	return generated.New(db)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

// Money columns are NUMERIC; the engine works in float64.
func floatToNumeric(f float64) pgtype.Numeric {
	return decimalToNumeric(decimal.NewFromFloat(f))
}

func numericToFloat(n pgtype.Numeric) float64 {
	return numericToDecimal(n).InexactFloat64()
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func pgTimestamptzToPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
