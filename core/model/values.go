package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// Compare compares two property values and returns -1, 0 or +1.
//
// Values which can both be read as numbers are compared numerically, values which can
// both be read as dates are compared chronologically, everything else is compared as
// strings. A missing (nil) value is less than any other value.
//
// Compare matches a value against a literal. It is not transitive over values of
// different kinds, use Order for sorting.
func Compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return compareFloat(fa, fb)
		}
	}
	_, aIsTime := a.(time.Time)
	_, bIsTime := b.(time.Time)
	if aIsTime || bIsTime {
		if ta, ok := toTime(a); ok {
			if tb, ok := toTime(b); ok {
				return ta.Compare(tb)
			}
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case bb:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(toString(a), toString(b))
}

// kind ranks values for Order
type kind int

const (
	kindMissing kind = iota
	kindNumber
	kindDate
	kindBool
	kindText
)

func kindOf(v interface{}) kind {
	if v == nil {
		return kindMissing
	}
	if _, ok := toFloat(v); ok {
		return kindNumber
	}
	switch v.(type) {
	case time.Time:
		return kindDate
	case bool:
		return kindBool
	case string:
		if _, ok := toTime(v); ok {
			return kindDate
		}
	}
	return kindText
}

// Order is a total order over property values and returns -1, 0 or +1.
//
// Values are ranked by kind first: missing, numbers (including numeric strings),
// dates (including date strings), booleans, then everything else as text. Values of
// the same kind compare like Compare does.
func Order(a, b interface{}) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return compareFloat(float64(ka), float64(kb))
	}
	switch ka {
	case kindMissing:
		return 0
	case kindNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return compareFloat(fa, fb)
	case kindDate:
		ta, _ := toTime(a)
		tb, _ := toTime(b)
		return ta.Compare(tb)
	}
	return Compare(a, b)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm.UTC(), true
			}
		}
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	}
	return time.Time{}, false
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
