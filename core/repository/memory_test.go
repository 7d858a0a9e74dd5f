package repository

import (
	"context"
	"testing"

	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/pager"
	"github.com/relabs-tech/modelrest/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mixed = model.NewDescriptor("Mixed", []*model.Property{
	{Name: "myStringProp", Type: model.TypeString},
	{Name: "myIntegerProp", Type: model.TypeInteger},
}, nil, model.Options{})

func save(t *testing.T, c Collection, props map[string]interface{}) *model.Record {
	t.Helper()
	rec := model.NewRecord("")
	require.NoError(t, mixed.AssignAll(rec, props))
	saved, err := c.Save(context.Background(), rec, SaveOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, saved.UUID)
	return saved
}

func search(t *testing.T, c Collection, text string) []string {
	t.Helper()
	p, ok := query.Parse(text)
	require.True(t, ok, text)
	records, err := c.Find(context.Background(), p, pager.Default(), FindOptions{LoadRecords: true})
	require.NoError(t, err)
	values := []string{}
	for _, rec := range records {
		v, _ := rec.Value("myStringProp")
		s, _ := v.(string)
		values = append(values, s)
	}
	return values
}

func TestMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory().Collection(ctx, mixed)
	require.NoError(t, err)

	rec := save(t, c, map[string]interface{}{"myStringProp": "a", "myIntegerProp": 500.0})

	exists, err := c.Exists(ctx, rec.UUID)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := c.Load(ctx, rec.UUID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), loaded.Properties["myIntegerProp"])

	// loaded records are copies
	loaded.Properties["myStringProp"] = "changed"
	again, _ := c.Load(ctx, rec.UUID)
	assert.Equal(t, "a", again.Properties["myStringProp"])

	_, err = c.Save(ctx, loaded, SaveOptions{})
	require.NoError(t, err)
	again, _ = c.Load(ctx, rec.UUID)
	assert.Equal(t, "changed", again.Properties["myStringProp"])

	require.NoError(t, c.Remove(ctx, rec.UUID))
	assert.ErrorIs(t, c.Remove(ctx, rec.UUID), ErrNotFound)
	_, err = c.Load(ctx, rec.UUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_SaveWithUUID(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemory().Collection(ctx, mixed)
	id := "12345678-1234-1234-1234-123456789012"

	_, err := c.Save(ctx, model.NewRecord(id), SaveOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	saved, err := c.Save(ctx, model.NewRecord(id), SaveOptions{IgnoreUnloaded: true})
	require.NoError(t, err)
	assert.Equal(t, id, saved.UUID)

	exists, _ := c.Exists(ctx, id)
	assert.True(t, exists)
}

func TestMemory_CollectionsPerModel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c1, _ := m.Collection(ctx, mixed)
	c2, _ := m.Collection(ctx, mixed)
	other, _ := m.Collection(ctx, model.NewDescriptor("Other", nil, nil, model.Options{}))

	rec := save(t, c1, map[string]interface{}{"myStringProp": "a"})
	exists, _ := c2.Exists(ctx, rec.UUID)
	assert.True(t, exists)
	exists, _ = other.Exists(ctx, rec.UUID)
	assert.False(t, exists)
}

func TestMemory_Find(t *testing.T) {
	c, _ := NewMemory().Collection(context.Background(), mixed)
	for _, s := range []string{"a", "b", "c", "d"} {
		save(t, c, map[string]interface{}{"myStringProp": s})
	}
	save(t, c, map[string]interface{}{"myIntegerProp": 1.0})

	assert.Equal(t, []string{"b"}, search(t, c, "myStringProp:eq:b"))
	assert.Equal(t, []string{"a"}, search(t, c, "myStringProp:lt:b"))
	assert.Equal(t, []string{"a", "b"}, search(t, c, "myStringProp:between:a:b"))
	assert.Equal(t, []string{""}, search(t, c, "myStringProp:null"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, search(t, c, "myStringProp:notnull"))

	p, _ := query.Parse("myStringProp:like:a%")
	_, err := c.Find(context.Background(), p, pager.Default(), FindOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestMemory_ListPaged(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemory().Collection(ctx, mixed)
	for _, s := range []string{"c", "a", "b"} {
		save(t, c, map[string]interface{}{"myStringProp": s})
	}

	meta := &pager.Meta{}
	records, err := c.List(ctx, pager.Spec{Offset: 1, Limit: 1, SortBy: "myStringProp", Ascending: true}, FindOptions{Meta: meta, LoadRecords: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].Properties["myStringProp"])
	assert.Equal(t, 3, meta.Count)

	// without loading, only uuids are returned
	records, err = c.List(ctx, pager.Default(), FindOptions{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.NotEmpty(t, records[0].UUID)
	assert.Empty(t, records[0].Properties)
}
