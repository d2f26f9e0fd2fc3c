// Package dataset reads the shared, read-only base template dataset stored
// as a parquet file next to the overlays.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// Row is one base template as stored in the dataset.
type Row struct {
	ID           int64
	Name         string
	Subject      string
	Body         string
	Placeholders *string
	ToEmail      string
	ToName       *string
}

// dataset column -> Row field
const (
	colID             = "id"
	colName           = "name"
	colSubject        = "subject"
	colBody           = "body"
	colPlaceholders   = "placeholders"
	colRecipientEmail = "recipient_email"
	colRecipientName  = "recipient_name"
)

const readBatchSize = 128

// Reader decodes parquet files into base template rows.
type Reader struct {
	log *zap.Logger
}

func NewReader(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log}
}

// DecodeBytes decodes an in-memory parquet file.
func (r *Reader) DecodeBytes(data []byte) ([]Row, error) {
	return r.Decode(bytes.NewReader(data), int64(len(data)))
}

// Decode reads every row group of the file. Rows whose id cannot be turned
// into an integer are skipped.
func (r *Reader) Decode(src io.ReaderAt, size int64) ([]Row, error) {
	f, err := parquet.OpenFile(src, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	index := columnIndex(f.Schema())
	if _, ok := index[colID]; !ok {
		return nil, fmt.Errorf("parquet schema has no %q column", colID)
	}

	out := make([]Row, 0, f.NumRows())
	skipped := 0
	buf := make([]parquet.Row, readBatchSize)

	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, raw := range buf[:n] {
				row, ok := decodeRow(raw, index)
				if !ok {
					skipped++
					continue
				}
				out = append(out, row)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read parquet rows: %w", err)
			}
		}
		rows.Close()
	}

	if skipped > 0 {
		r.log.Warn("skipped dataset rows with invalid id", zap.Int("count", skipped))
	}
	return out, nil
}

// columnIndex maps top-level column names to their leaf index.
func columnIndex(schema *parquet.Schema) map[string]int {
	index := make(map[string]int)
	for i, path := range schema.Columns() {
		if len(path) == 1 {
			index[path[0]] = i
		}
	}
	return index
}

func decodeRow(raw parquet.Row, index map[string]int) (Row, bool) {
	byColumn := make(map[int]parquet.Value, len(raw))
	for _, v := range raw {
		byColumn[v.Column()] = v
	}
	value := func(name string) (parquet.Value, bool) {
		i, ok := index[name]
		if !ok {
			return parquet.Value{}, false
		}
		v, ok := byColumn[i]
		if !ok || v.IsNull() {
			return parquet.Value{}, false
		}
		return v, true
	}

	idVal, ok := value(colID)
	if !ok {
		return Row{}, false
	}
	id, ok := coerceID(idVal)
	if !ok {
		return Row{}, false
	}

	row := Row{ID: id}
	if v, ok := value(colName); ok {
		row.Name = valueString(v)
	}
	if v, ok := value(colSubject); ok {
		row.Subject = valueString(v)
	}
	if v, ok := value(colBody); ok {
		row.Body = valueString(v)
	}
	if v, ok := value(colRecipientEmail); ok {
		row.ToEmail = valueString(v)
	}
	if v, ok := value(colPlaceholders); ok {
		s := valueString(v)
		row.Placeholders = &s
	}
	if v, ok := value(colRecipientName); ok {
		s := valueString(v)
		row.ToName = &s
	}
	return row, true
}

func coerceID(v parquet.Value) (int64, bool) {
	switch v.Kind() {
	case parquet.Int32:
		return int64(v.Int32()), true
	case parquet.Int64:
		return v.Int64(), true
	case parquet.Double:
		return floatID(v.Double())
	case parquet.Float:
		return floatID(float64(v.Float()))
	case parquet.ByteArray, parquet.FixedLenByteArray:
		s := strings.TrimSpace(string(v.ByteArray()))
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return id, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatID(f)
		}
	}
	return 0, false
}

func floatID(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func valueString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	default:
		return v.String()
	}
}
