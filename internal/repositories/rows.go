package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendtrack/internal/store"
)

// Row decoding helpers. Drivers differ in how they hand back scalars (sqlite
// returns strings where postgres returns typed values), so each helper
// accepts the representations seen in practice.

func rowString(row store.Row, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowUUID(row store.Row, key string) uuid.UUID {
	id, err := uuid.Parse(rowString(row, key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func rowDecimal(row store.Row, key string) decimal.Decimal {
	switch v := row[key].(type) {
	case decimal.Decimal:
		return v
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		return decimal.Zero
	}
}

func rowTime(row store.Row, key string) time.Time {
	switch v := row[key].(type) {
	case time.Time:
		return v
	case string:
		return parseWireTime(v)
	case []byte:
		return parseWireTime(string(v))
	default:
		return time.Time{}
	}
}

func parseWireTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
