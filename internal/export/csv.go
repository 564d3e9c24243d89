package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"StockLens/internal/model"
)

// DateTimeLayout is the layout of the derived date column.
const DateTimeLayout = "2006-01-02 15:04:05"

// Header is the CSV column set, in order.
var Header = []string{"timestamp", "date", "open", "high", "low", "close", "volume", "vwap", "transactions"}

// Filename returns the download name for a symbol's history.
func Filename(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "_historical_data.csv"
}

// WriteCSV writes the series with a header row, one line per bar in order.
func WriteCSV(w io.Writer, s *model.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if s != nil {
		for _, b := range s.Bars {
			if err := cw.Write(formatBar(b)); err != nil {
				return fmt.Errorf("write bar %d: %w", b.Timestamp, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatBar(b model.Bar) []string {
	return []string{
		strconv.FormatInt(b.Timestamp, 10),
		b.Date().Format(DateTimeLayout),
		formatFloat(b.Open),
		formatFloat(b.High),
		formatFloat(b.Low),
		formatFloat(b.Close),
		formatFloat(b.Volume),
		formatFloat(b.VWAP),
		strconv.FormatInt(b.Transactions, 10),
	}
}

// formatFloat uses the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadCSV parses bars written by WriteCSV. The date column is derived and ignored.
func ReadCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("column %d: expected %q, got %q", i, name, head[i])
		}
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		b, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseBar(rec []string) (model.Bar, error) {
	var b model.Bar
	var err error
	if b.Timestamp, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return b, fmt.Errorf("timestamp: %w", err)
	}
	floats := []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.VWAP}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[2+i], 64); err != nil {
			return b, fmt.Errorf("%s: %w", Header[2+i], err)
		}
	}
	if b.Transactions, err = strconv.ParseInt(rec[8], 10, 64); err != nil {
		return b, fmt.Errorf("transactions: %w", err)
	}
	return b, nil
}
