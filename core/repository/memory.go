package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/pager"
	"github.com/relabs-tech/modelrest/core/query"
)

// Memory is a repository which keeps all records in process
type Memory struct {
	mutex       sync.Mutex
	collections map[string]*memoryCollection
}

// NewMemory returns an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{collections: map[string]*memoryCollection{}}
}

// Collection returns the collection of the model, creating it on first use
func (m *Memory) Collection(ctx context.Context, d *model.Descriptor) (Collection, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	c, ok := m.collections[d.RouteName()]
	if !ok {
		c = &memoryCollection{records: map[string]*model.Record{}}
		m.collections[d.RouteName()] = c
	}
	return c, nil
}

type memoryCollection struct {
	mutex   sync.RWMutex
	order   []string
	records map[string]*model.Record
}

func (c *memoryCollection) Exists(ctx context.Context, id string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.records[id]
	return ok, nil
}

func (c *memoryCollection) Load(ctx context.Context, id string) (*model.Record, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (c *memoryCollection) Save(ctx context.Context, rec *model.Record, opts SaveOptions) (*model.Record, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	stored := rec.Clone()
	if stored.UUID == "" {
		stored.UUID = uuid.New().String()
	}
	if _, ok := c.records[stored.UUID]; !ok {
		if rec.UUID != "" && !opts.IgnoreUnloaded {
			return nil, ErrNotFound
		}
		c.order = append(c.order, stored.UUID)
	}
	c.records[stored.UUID] = stored
	return stored.Clone(), nil
}

func (c *memoryCollection) Remove(ctx context.Context, id string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.records[id]; !ok {
		return ErrNotFound
	}
	delete(c.records, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memoryCollection) Find(ctx context.Context, p query.Predicate, spec pager.Spec, opts FindOptions) ([]*model.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.collect(spec, opts, p.MatchRecord)
}

func (c *memoryCollection) List(ctx context.Context, spec pager.Spec, opts FindOptions) ([]*model.Record, error) {
	return c.collect(spec, opts, nil)
}

func (c *memoryCollection) collect(spec pager.Spec, opts FindOptions, match func(*model.Record) (bool, error)) ([]*model.Record, error) {
	c.mutex.RLock()
	records := make([]*model.Record, 0, len(c.order))
	for _, id := range c.order {
		rec := c.records[id]
		if match != nil {
			ok, err := match(rec)
			if err != nil {
				c.mutex.RUnlock()
				return nil, err
			}
			if !ok {
				continue
			}
		}
		records = append(records, rec.Clone())
	}
	c.mutex.RUnlock()
	return page(records, spec, opts), nil
}
