package types

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FileData is the raw table a decoder hands back before cell coercion.
type FileData struct {
	Headers []string
	Rows    [][]string
}

type cellKind uint8

const (
	kindText cellKind = iota
	kindNumber
)

// Cell holds either a number or a piece of text.
type Cell struct {
	kind cellKind
	num  float64
	text string
}

func Number(f float64) Cell { return Cell{kind: kindNumber, num: f} }

func Text(s string) Cell { return Cell{kind: kindText, text: s} }

// ParseCell returns a number cell when the whole trimmed value is a finite
// float literal and a text cell otherwise.
func ParseCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Text(s)
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Text(s)
	}
	return Number(f)
}

func (c Cell) IsNumber() bool { return c.kind == kindNumber }

// Float returns the numeric value and whether the cell is a number.
func (c Cell) Float() (float64, bool) {
	return c.num, c.kind == kindNumber
}

func (c Cell) String() string {
	if c.kind == kindNumber {
		return strconv.FormatFloat(c.num, 'g', -1, 64)
	}
	return c.text
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.kind == kindNumber {
		return json.Marshal(c.num)
	}
	return json.Marshal(c.text)
}

// Field is one header/value pair of a Row.
type Field struct {
	Name  string
	Value Cell
}

// Row is an ordered record keyed by column header. It encodes as a JSON
// object whose keys follow header order.
type Row []Field

func (r Row) Get(name string) (Cell, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Cell{}, false
}

func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Name
	}
	return keys
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RowSet holds every data row of one file, header excluded.
type RowSet []Row

// UploadTarget is the resolved destination plus the pause between rows.
// A zero Pause means all rows go out in a single request.
type UploadTarget struct {
	URL   *url.URL
	Pause time.Duration
}

func (t UploadTarget) Batch() bool {
	return t.Pause <= 0
}
