package pager

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/relabs-tech/modelrest/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(values ...interface{}) []*model.Record {
	var list []*model.Record
	for i, v := range values {
		rec := model.NewRecord(fmt.Sprint(i))
		if v != nil {
			rec.Properties["p"] = v
		}
		list = append(list, rec)
	}
	return list
}

func uuids(list []*model.Record) []string {
	ids := []string{}
	for _, r := range list {
		ids = append(ids, r.UUID)
	}
	return ids
}

func TestApply_Pagination(t *testing.T) {
	list := records("a", "b", "c", "d", "e")
	for offset := 0; offset <= 7; offset++ {
		for _, limit := range []int{0, 1, 2, 5, 10, Unlimited} {
			spec := Spec{Offset: offset, Limit: limit, Ascending: true}
			meta := &Meta{}
			page := Apply(list, spec, meta)

			want := len(list) - offset
			if want < 0 {
				want = 0
			}
			if limit != Unlimited && limit < want {
				want = limit
			}
			assert.Len(t, page, want, "offset %d limit %d", offset, limit)
			assert.Equal(t, len(list), meta.Count)
			if want > 0 {
				assert.Equal(t, fmt.Sprint(offset), page[0].UUID)
			}
		}
	}
}

func TestApply_SortMissingLast(t *testing.T) {
	list := records("b", nil, "a", "c", nil)

	page := Apply(list, Spec{SortBy: "p", Limit: Unlimited, Ascending: true}, nil)
	assert.Equal(t, []string{"2", "0", "3", "1", "4"}, uuids(page))

	page = Apply(list, Spec{SortBy: "p", Limit: Unlimited, Ascending: false}, nil)
	assert.Equal(t, []string{"3", "0", "2", "1", "4"}, uuids(page))

	// input untouched
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, uuids(list))
}

func TestApply_SortNumeric(t *testing.T) {
	list := records(int64(13), int64(5), "100", 7.5)
	page := Apply(list, Spec{SortBy: "p", Limit: Unlimited, Ascending: true}, nil)
	assert.Equal(t, []string{"1", "3", "0", "2"}, uuids(page))
}

func TestApply_SortMixedKinds(t *testing.T) {
	list := records("10a", int64(10), "9", "2019-08-01", true)
	page := Apply(list, Spec{SortBy: "p", Limit: Unlimited, Ascending: true}, nil)
	assert.Equal(t, []string{"2", "1", "3", "4", "0"}, uuids(page))

	page = Apply(list, Spec{SortBy: "p", Limit: Unlimited, Ascending: false}, nil)
	assert.Equal(t, []string{"0", "4", "3", "1", "2"}, uuids(page))
}

func TestApply_SortStable(t *testing.T) {
	list := records("x", "a", "x", "a")
	page := Apply(list, Spec{SortBy: "p", Limit: Unlimited, Ascending: true}, nil)
	assert.Equal(t, []string{"1", "3", "0", "2"}, uuids(page))
}

func TestApply_CountBeforeSlice(t *testing.T) {
	meta := &Meta{}
	page := Apply(records("a", "b", "c"), Spec{Offset: 1, Limit: 1, Ascending: true}, meta)
	assert.Len(t, page, 1)
	assert.Equal(t, 3, meta.Count)
}

func TestFromQuery(t *testing.T) {
	spec, err := FromQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Default(), spec)

	spec, err = FromQuery(url.Values{
		"offset":     {"2"},
		"limit":      {"3"},
		"sortBy":     {"myStringProp"},
		"descending": {""},
	})
	require.NoError(t, err)
	assert.Equal(t, Spec{Offset: 2, Limit: 3, SortBy: "myStringProp", Ascending: false}, spec)

	spec, err = FromQuery(url.Values{"descending": {"0"}})
	require.NoError(t, err)
	assert.True(t, spec.Ascending)

	_, err = FromQuery(url.Values{"offset": {"-1"}})
	assert.Error(t, err)
	_, err = FromQuery(url.Values{"limit": {"many"}})
	assert.Error(t, err)
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"", "1", "true", "YES", "on"} {
		assert.True(t, Truthy(s), s)
	}
	for _, s := range []string{"0", "false", "no", "off", "whatever"} {
		assert.False(t, Truthy(s), s)
	}
}
