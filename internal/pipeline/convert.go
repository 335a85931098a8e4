package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/helios-trading/helios-data/internal/database"
	"github.com/helios-trading/helios-data/internal/model"
)

// failureReason buckets an error for the failure counter labels.
func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidTick):
		return "invalid_tick"
	case errors.Is(err, database.ErrConstraintViolation):
		return "constraint"
	case errors.Is(err, database.ErrTimeout):
		return "timeout"
	default:
		return "other"
	}
}

// toDecimal converts a fetched column value to a decimal. Row maps
// carry driver-native types; test fakes supply Go-native ones.
func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case pgtype.Numeric:
		val, err := x.Value()
		if err != nil {
			return decimal.Decimal{}, err
		}
		s, ok := val.(string)
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("numeric driver value %T", val)
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// toNullDecimal converts a nullable fetched column value.
func toNullDecimal(v any) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func toTime(v any) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
	return t.UTC(), nil
}

// rowToBar decodes one fetched OHLCV row.
func rowToBar(row map[string]any) (model.OhlcvBar, error) {
	var bar model.OhlcvBar
	var err error

	symbol, ok := row["symbol"].(string)
	if !ok {
		return bar, fmt.Errorf("unsupported symbol type %T", row["symbol"])
	}
	bar.Symbol = symbol

	if bar.Timestamp, err = toTime(row["timestamp"]); err != nil {
		return bar, err
	}
	if bar.Open, err = toDecimal(row["open_price"]); err != nil {
		return bar, err
	}
	if bar.High, err = toDecimal(row["high_price"]); err != nil {
		return bar, err
	}
	if bar.Low, err = toDecimal(row["low_price"]); err != nil {
		return bar, err
	}
	if bar.Close, err = toDecimal(row["close_price"]); err != nil {
		return bar, err
	}
	if bar.Volume, err = toDecimal(row["volume"]); err != nil {
		return bar, err
	}
	if bar.TakerBuyVolume, err = toNullDecimal(row["taker_buy_volume"]); err != nil {
		return bar, err
	}

	bar.TradeCount = -1
	switch n := row["trades_count"].(type) {
	case nil:
	case int64:
		bar.TradeCount = n
	case int32:
		bar.TradeCount = int64(n)
	case int:
		bar.TradeCount = int64(n)
	default:
		return bar, fmt.Errorf("unsupported trades type %T", n)
	}

	return bar, nil
}
