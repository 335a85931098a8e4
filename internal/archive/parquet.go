package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/helios-trading/helios-data/internal/model"
)

// ContentTypeParquet is the content type used for archived OHLCV batches.
const ContentTypeParquet = "application/octet-stream"

const historicalPrefix = "historical"

// BarRow is the columnar layout for archived bars. Prices become float64 in
// the archive; the relational tier keeps the exact decimals.
type BarRow struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp string  `parquet:"timestamp"` // RFC 3339, bucket open time
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
	Trades    int64   `parquet:"trades"`
}

// EncodeBars serializes a batch of OHLCV bars to parquet bytes.
func EncodeBars(bars []model.OhlcvBar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("empty bar batch")
	}

	rows := make([]BarRow, len(bars))
	for i, bar := range bars {
		rows[i] = BarRow{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp.UTC().Format(time.RFC3339),
			Open:      bar.Open.InexactFloat64(),
			High:      bar.High.InexactFloat64(),
			Low:       bar.Low.InexactFloat64(),
			Close:     bar.Close.InexactFloat64(),
			Volume:    bar.Volume.InexactFloat64(),
			Trades:    bar.TradeCount,
		}
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[BarRow](&buf)
	if _, err := w.Write(rows); err != nil {
		w.Close()
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBars reads archived rows back, for verification tooling.
func DecodeBars(data []byte) ([]BarRow, error) {
	rows, err := parquet.Read[BarRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows, nil
}

// BarKey builds the date-partitioned archive key for a bar batch:
// historical/{symbol}/{timeframe}/{yyyy}/{mm}/{dd}/ohlcv_{hhmmss}.parquet.
// The date comes from the first bar's open time; the suffix from upload time.
func BarKey(symbol string, tf model.Timeframe, firstBar, uploadedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s/ohlcv_%s.parquet",
		historicalPrefix,
		symbol,
		tf,
		firstBar.UTC().Format("2006/01/02"),
		uploadedAt.UTC().Format("150405"),
	)
}
