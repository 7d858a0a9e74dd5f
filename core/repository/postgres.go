package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/relabs-tech/modelrest/core/csql"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/pager"
	"github.com/relabs-tech/modelrest/core/query"
)

// timestamps are stored with fixed width so that jsonb comparison orders them chronologically
const storedTimeFormat = "2006-01-02T15:04:05.000000Z"

// Postgres is a repository which stores the records of each model in a table
// of its own. Properties are kept in a jsonb column.
//
// Searching happens in the database, sorting and paging in process.
type Postgres struct {
	db          *csql.DB
	mutex       sync.Mutex
	collections map[string]*postgresCollection
}

// NewPostgres returns a repository on the given database
func NewPostgres(db *csql.DB) *Postgres {
	return &Postgres{db: db, collections: map[string]*postgresCollection{}}
}

// Collection returns the collection of the model. The table is created on first use.
func (p *Postgres) Collection(ctx context.Context, d *model.Descriptor) (Collection, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if c, ok := p.collections[d.RouteName()]; ok {
		return c, nil
	}

	table := p.db.Table(d.RouteName())
	logger.FromContext(ctx).Infoln("create table", table)
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
uuid uuid PRIMARY KEY,
serial BIGSERIAL NOT NULL,
created_at TIMESTAMP NOT NULL DEFAULT now(),
properties JSONB NOT NULL DEFAULT '{}'::jsonb
);`)
	if err != nil {
		return nil, fmt.Errorf("cannot create table %s: %w", table, err)
	}
	c := &postgresCollection{
		db:          p.db,
		model:       d,
		existsQuery: `SELECT EXISTS(SELECT 1 FROM ` + table + ` WHERE uuid = $1);`,
		loadQuery:   `SELECT uuid, properties FROM ` + table + ` WHERE uuid = $1;`,
		insertQuery: `INSERT INTO ` + table + ` (uuid, properties) VALUES ($1, $2) RETURNING uuid;`,
		updateQuery: `UPDATE ` + table + ` SET properties = $2 WHERE uuid = $1 RETURNING uuid;`,
		upsertQuery: `INSERT INTO ` + table + ` (uuid, properties) VALUES ($1, $2) ON CONFLICT (uuid) DO UPDATE SET properties = EXCLUDED.properties RETURNING uuid;`,
		removeQuery: `DELETE FROM ` + table + ` WHERE uuid = $1;`,
		listQuery:   `SELECT uuid, properties FROM ` + table + ` %s ORDER BY serial;`,
	}
	p.collections[d.RouteName()] = c
	return c, nil
}

type postgresCollection struct {
	db    *csql.DB
	model *model.Descriptor

	existsQuery string
	loadQuery   string
	insertQuery string
	updateQuery string
	upsertQuery string
	removeQuery string
	listQuery   string
}

func (c *postgresCollection) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, c.existsQuery, id).Scan(&exists)
	return exists, err
}

func (c *postgresCollection) Load(ctx context.Context, id string) (*model.Record, error) {
	rec, err := c.scan(c.db.QueryRowContext(ctx, c.loadQuery, id))
	if errors.Is(err, csql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (c *postgresCollection) Save(ctx context.Context, rec *model.Record, opts SaveOptions) (*model.Record, error) {
	properties, err := encodeProperties(rec.Properties)
	if err != nil {
		return nil, err
	}
	stored := rec.Clone()
	statement := c.updateQuery
	switch {
	case rec.UUID == "":
		stored.UUID = uuid.New().String()
		statement = c.insertQuery
	case opts.IgnoreUnloaded:
		statement = c.upsertQuery
	}

	var id string
	err = c.db.QueryRowContext(ctx, statement, stored.UUID, string(properties)).Scan(&id)
	if errors.Is(err, csql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	stored.UUID = id
	for name, value := range stored.Properties {
		if value == nil {
			delete(stored.Properties, name)
		}
	}
	return stored, nil
}

func (c *postgresCollection) Remove(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, c.removeQuery, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *postgresCollection) Find(ctx context.Context, p query.Predicate, spec pager.Spec, opts FindOptions) ([]*model.Record, error) {
	condition, args, err := c.condition(p)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, fmt.Sprintf(c.listQuery, "WHERE "+condition), spec, opts, args...)
}

func (c *postgresCollection) List(ctx context.Context, spec pager.Spec, opts FindOptions) ([]*model.Record, error) {
	return c.query(ctx, fmt.Sprintf(c.listQuery, ""), spec, opts)
}

func (c *postgresCollection) query(ctx context.Context, statement string, spec pager.Spec, opts FindOptions, args ...interface{}) ([]*model.Record, error) {
	rows, err := c.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.Record{}
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page(records, spec, opts), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (c *postgresCollection) scan(row scanner) (*model.Record, error) {
	var id string
	var properties []byte
	if err := row.Scan(&id, &properties); err != nil {
		return nil, err
	}
	rec := model.NewRecord(id)
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &rec.Properties); err != nil {
			return nil, fmt.Errorf("invalid properties of %s: %w", id, err)
		}
	}
	c.model.Normalize(rec)
	return rec, nil
}

// condition translates a predicate into a where clause on the properties column
func (c *postgresCollection) condition(p query.Predicate) (string, []interface{}, error) {
	if err := p.Validate(); err != nil {
		return "", nil, err
	}
	property := `properties->$1::text`
	switch p.Operation {
	case query.OperationNull:
		return `(` + property + ` IS NULL OR ` + property + ` = 'null'::jsonb)`, []interface{}{p.Name}, nil
	case query.OperationNotNull:
		return `(` + property + ` IS NOT NULL AND ` + property + ` <> 'null'::jsonb)`, []interface{}{p.Name}, nil
	case query.OperationBetween:
		lower, err := c.jsonValue(p.Name, p.Lower)
		if err != nil {
			return "", nil, err
		}
		upper, err := c.jsonValue(p.Name, p.Upper)
		if err != nil {
			return "", nil, err
		}
		return property + ` BETWEEN $2::jsonb AND $3::jsonb`, []interface{}{p.Name, lower, upper}, nil
	}

	operators := map[string]string{
		query.OperationEqual:          "=",
		query.OperationNotEqual:       "<>",
		query.OperationLess:           "<",
		query.OperationLessOrEqual:    "<=",
		query.OperationGreater:        ">",
		query.OperationGreaterOrEqual: ">=",
	}
	operator, ok := operators[p.Operation]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, p.Operation)
	}
	value, err := c.jsonValue(p.Name, p.Value)
	if err != nil {
		return "", nil, err
	}
	return property + ` ` + operator + ` $2::jsonb`, []interface{}{p.Name, value}, nil
}

// jsonValue renders a query operand as jsonb literal matching the stored type of the property.
// Operands which do not fit the declared type are compared as strings.
func (c *postgresCollection) jsonValue(name, raw string) (string, error) {
	var value interface{} = raw
	if prop, ok := c.model.Property(name); ok {
		if v, err := prop.Coerce(raw); err == nil {
			value = v
		}
	}
	data, err := json.Marshal(storable(value))
	return string(data), err
}

func encodeProperties(properties map[string]interface{}) ([]byte, error) {
	out := make(map[string]interface{}, len(properties))
	for name, value := range properties {
		if value == nil {
			continue
		}
		out[name] = storable(value)
	}
	return json.Marshal(out)
}

func storable(value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(storedTimeFormat)
	}
	return value
}
