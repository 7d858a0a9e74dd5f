// Package pager sorts and slices lists of records.
package pager

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/relabs-tech/modelrest/core/model"
)

// Unlimited is the limit of a spec which returns all records
const Unlimited = -1

// Spec describes which page of a record list is requested
type Spec struct {
	Offset    int
	Limit     int
	SortBy    string
	Ascending bool
}

// Meta collects information about a list beyond the returned page
type Meta struct {
	Count int
}

// Default returns a spec which returns all records in storage order
func Default() Spec {
	return Spec{Limit: Unlimited, Ascending: true}
}

// FromQuery reads offset, limit, sortBy and descending from the query parameters
func FromQuery(values url.Values) (Spec, error) {
	spec := Default()
	if s := values.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return spec, fmt.Errorf("invalid offset %q", s)
		}
		spec.Offset = offset
	}
	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return spec, fmt.Errorf("invalid limit %q", s)
		}
		spec.Limit = limit
	}
	spec.SortBy = values.Get("sortBy")
	if _, ok := values["descending"]; ok {
		spec.Ascending = !Truthy(values.Get("descending"))
	}
	return spec, nil
}

// Truthy interprets a boolean-ish query parameter or header value.
// An empty value counts as true, since the flag is present.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "true", "yes", "on":
		return true
	}
	return false
}

// Apply sorts records according to the spec and returns the requested page.
// The records slice itself is not modified. If meta is not nil, it receives the
// total number of records before slicing.
//
// Records which miss the sort property are always sorted last, regardless of
// the sort direction. The sort is stable.
func Apply(records []*model.Record, spec Spec, meta *Meta) []*model.Record {
	sorted := records
	if spec.SortBy != "" {
		sorted = make([]*model.Record, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			a, aok := sorted[i].Value(spec.SortBy)
			b, bok := sorted[j].Value(spec.SortBy)
			switch {
			case !aok:
				return false
			case !bok:
				return true
			}
			if spec.Ascending {
				return model.Order(a, b) < 0
			}
			return model.Order(a, b) > 0
		})
	}

	if meta != nil {
		meta.Count = len(sorted)
	}

	if spec.Offset >= len(sorted) {
		return []*model.Record{}
	}
	page := sorted[spec.Offset:]
	if spec.Limit != Unlimited && spec.Limit < len(page) {
		page = page[:spec.Limit]
	}
	return page
}
