package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// documentReader 以寬鬆的方式從未型別化的文件中讀取欄位
type documentReader struct {
	data map[string]any
	errs []string
}

func newDocumentReader(data map[string]any) *documentReader {
	return &documentReader{data: data}
}

func (r *documentReader) string(field string) string {
	v, ok := r.data[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func (r *documentReader) bool(field string) bool {
	v, ok := r.data[field]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s: not a boolean", field))
		}
		return parsed
	default:
		r.errs = append(r.errs, fmt.Sprintf("%s: not a boolean", field))
		return false
	}
}

func (r *documentReader) float(field string) float64 {
	v, ok := r.data[field]
	if !ok || v == nil {
		return 0
	}
	f, ok := toFloat64(v)
	if !ok {
		r.errs = append(r.errs, fmt.Sprintf("%s: not a number", field))
	}
	return f
}

func (r *documentReader) int(field string) int {
	f := r.float(field)
	if f != math.Trunc(f) {
		r.errs = append(r.errs, fmt.Sprintf("%s: not an integer", field))
	}
	return int(f)
}

func (r *documentReader) time(field string) time.Time {
	v, ok := r.data[field]
	if !ok || v == nil {
		return time.Time{}
	}
	t, ok := ToTime(v)
	if !ok {
		r.errs = append(r.errs, fmt.Sprintf("%s: not a timestamp", field))
	}
	return t
}

func (r *documentReader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMalformedDocument, strings.Join(r.errs, "; "))
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ToTime normalizes the timestamp representations produced by the document
// drivers: native time values and unix milliseconds.
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	if ms, ok := toFloat64(v); ok {
		return time.UnixMilli(int64(ms)), true
	}
	return time.Time{}, false
}
