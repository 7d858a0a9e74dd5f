package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/relabs-tech/modelrest/core/csql"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/pager"
	"github.com/relabs-tech/modelrest/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "4f1638da-861e-4a81-8cc7-e6847b6fdf9b"

func newMockDB(t *testing.T) (*csql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return &csql.DB{DB: db, Schema: "test"}, mock
}

func newMockCollection(t *testing.T, d *model.Descriptor) (Collection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "test"\."` + d.RouteName() + `"`).WillReturnResult(sqlmock.NewResult(0, 0))
	c, err := NewPostgres(db).Collection(context.Background(), d)
	require.NoError(t, err)
	return c, mock
}

func TestPostgres_TableCreatedOnce(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "test"\."mixed"`).WillReturnResult(sqlmock.NewResult(0, 0))
	p := NewPostgres(db)
	_, err := p.Collection(context.Background(), mixed)
	require.NoError(t, err)
	_, err = p.Collection(context.Background(), mixed)
	require.NoError(t, err)
}

func TestPostgres_Exists(t *testing.T) {
	c, mock := newMockCollection(t, mixed)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM "test"\."mixed" WHERE uuid = \$1\)`).
		WithArgs(testID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := c.Exists(context.Background(), testID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgres_Load(t *testing.T) {
	c, mock := newMockCollection(t, mixed)
	mock.ExpectQuery(`SELECT uuid, properties FROM "test"\."mixed" WHERE uuid = \$1`).
		WithArgs(testID).
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "properties"}).
			AddRow(testID, []byte(`{"myStringProp":"a","myIntegerProp":500}`)))

	rec, err := c.Load(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, rec.UUID)
	assert.Equal(t, "a", rec.Properties["myStringProp"])
	assert.Equal(t, int64(500), rec.Properties["myIntegerProp"])

	mock.ExpectQuery(`SELECT uuid, properties FROM "test"\."mixed" WHERE uuid = \$1`).
		WithArgs(testID).
		WillReturnError(sql.ErrNoRows)
	_, err = c.Load(context.Background(), testID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_Save(t *testing.T) {
	c, mock := newMockCollection(t, mixed)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO "test"\."mixed" \(uuid, properties\) VALUES \(\$1, \$2\) RETURNING uuid`).
		WithArgs(sqlmock.AnyArg(), `{"myStringProp":"a"}`).
		WillReturnRows(sqlmock.NewRows([]string{"uuid"}).AddRow(testID))
	rec := model.NewRecord("")
	rec.Properties["myStringProp"] = "a"
	rec.Properties["myIntegerProp"] = nil
	saved, err := c.Save(ctx, rec, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, testID, saved.UUID)
	_, ok := saved.Properties["myIntegerProp"]
	assert.False(t, ok)

	mock.ExpectQuery(`UPDATE "test"\."mixed" SET properties = \$2 WHERE uuid = \$1 RETURNING uuid`).
		WithArgs(testID, `{"myStringProp":"a"}`).
		WillReturnError(sql.ErrNoRows)
	_, err = c.Save(ctx, saved, SaveOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`INSERT INTO "test"\."mixed" .+ ON CONFLICT \(uuid\) DO UPDATE`).
		WithArgs(testID, `{"myStringProp":"a"}`).
		WillReturnRows(sqlmock.NewRows([]string{"uuid"}).AddRow(testID))
	_, err = c.Save(ctx, saved, SaveOptions{IgnoreUnloaded: true})
	require.NoError(t, err)
}

func TestPostgres_Remove(t *testing.T) {
	c, mock := newMockCollection(t, mixed)
	mock.ExpectExec(`DELETE FROM "test"\."mixed" WHERE uuid = \$1`).
		WithArgs(testID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, c.Remove(context.Background(), testID))

	mock.ExpectExec(`DELETE FROM "test"\."mixed" WHERE uuid = \$1`).
		WithArgs(testID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, c.Remove(context.Background(), testID), ErrNotFound)
}

func TestPostgres_Find(t *testing.T) {
	c, mock := newMockCollection(t, mixed)
	ctx := context.Background()
	columns := []string{"uuid", "properties"}

	tests := []struct {
		text  string
		where string
		args  []driver.Value
	}{
		{"myStringProp:eq:b", `WHERE properties->\$1::text = \$2::jsonb`, []driver.Value{"myStringProp", `"b"`}},
		{"myIntegerProp:lt:600", `WHERE properties->\$1::text < \$2::jsonb`, []driver.Value{"myIntegerProp", `600`}},
		{"myIntegerProp:lt:many", `WHERE properties->\$1::text < \$2::jsonb`, []driver.Value{"myIntegerProp", `"many"`}},
		{"myStringProp:between:a:b", `WHERE properties->\$1::text BETWEEN \$2::jsonb AND \$3::jsonb`, []driver.Value{"myStringProp", `"a"`, `"b"`}},
		{"myStringProp:null", `WHERE \(properties->\$1::text IS NULL OR`, []driver.Value{"myStringProp"}},
		{"myStringProp:notnull", `WHERE \(properties->\$1::text IS NOT NULL AND`, []driver.Value{"myStringProp"}},
	}
	for _, tt := range tests {
		mock.ExpectQuery(`SELECT uuid, properties FROM "test"\."mixed" ` + tt.where + `.* ORDER BY serial`).
			WithArgs(tt.args...).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(testID, []byte(`{"myStringProp":"b"}`)))

		p, ok := query.Parse(tt.text)
		require.True(t, ok)
		records, err := c.Find(ctx, p, pager.Default(), FindOptions{LoadRecords: true})
		require.NoError(t, err, tt.text)
		require.Len(t, records, 1)
		assert.Equal(t, "b", records[0].Properties["myStringProp"])
	}

	p, _ := query.Parse("myStringProp:like:b%")
	_, err := c.Find(ctx, p, pager.Default(), FindOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestPostgres_ListPaged(t *testing.T) {
	c, mock := newMockCollection(t, mixed)
	rows := sqlmock.NewRows([]string{"uuid", "properties"}).
		AddRow("00000000-0000-0000-0000-000000000001", []byte(`{"myStringProp":"c"}`)).
		AddRow("00000000-0000-0000-0000-000000000002", []byte(`{"myStringProp":"a"}`)).
		AddRow("00000000-0000-0000-0000-000000000003", []byte(`{}`))
	mock.ExpectQuery(`SELECT uuid, properties FROM "test"\."mixed"\s+ORDER BY serial`).WillReturnRows(rows)

	meta := &pager.Meta{}
	records, err := c.List(context.Background(),
		pager.Spec{Limit: 2, SortBy: "myStringProp", Ascending: false},
		FindOptions{Meta: meta})
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Count)
	require.Len(t, records, 2)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", records[0].UUID)
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", records[1].UUID)
}

func TestPostgres_DatesStoredSortable(t *testing.T) {
	data, err := encodeProperties(map[string]interface{}{
		"when": time.Date(2019, 8, 1, 2, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2019-08-01T00:00:00.000000Z"}`, string(data))
}
