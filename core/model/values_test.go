package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want int
	}{
		{nil, nil, 0},
		{nil, "a", -1},
		{"a", nil, 1},
		{int64(5), int64(13), -1},
		{"5", "13", -1},
		{int64(500), "600", -1},
		{13.0, int64(13), 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"abc", "abc", 0},
		{"10 apples", "9 apples", -1},
		{false, true, -1},
		{true, true, 0},
		{time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC), "2019-07-31", 1},
		{time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC), "2019-08-01", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compare(tt.a, tt.b), "compare %v with %v", tt.a, tt.b)
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want int
	}{
		{nil, nil, 0},
		{nil, int64(1), -1},
		{"5", "13", -1},
		{13.0, "13", 0},
		{int64(10), "10a", -1},
		{"10a", "9", 1},
		{"9", int64(10), -1},
		{"2019-08-01", "2019-07-31", 1},
		{time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC), "2019-08-01", 0},
		{int64(99), "2019-08-01", -1},
		{"2019-08-01", false, -1},
		{true, "abc", -1},
		{false, true, -1},
		{"10 apples", "9 apples", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Order(tt.a, tt.b), "order %v and %v", tt.a, tt.b)
		assert.Equal(t, -tt.want, Order(tt.b, tt.a), "order %v and %v", tt.b, tt.a)
	}
}

func TestOrder_Transitive(t *testing.T) {
	values := []interface{}{
		nil, int64(10), "9", "10a", 9.5, "2019-08-01", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		true, false, "abc", "", " 7 ",
	}
	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				if Order(a, b) <= 0 && Order(b, c) <= 0 {
					assert.LessOrEqual(t, Order(a, c), 0, "%v <= %v <= %v", a, b, c)
				}
			}
		}
	}
}
