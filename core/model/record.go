package model

import "fmt"

// Record is a single stored instance of a model
type Record struct {
	UUID       string
	Properties map[string]interface{}
}

// NewRecord returns an empty record with the given uuid
func NewRecord(id string) *Record {
	return &Record{UUID: id, Properties: map[string]interface{}{}}
}

// Value returns the stored value of the named property
func (r *Record) Value(name string) (interface{}, bool) {
	v, ok := r.Properties[name]
	return v, ok && v != nil
}

// Clone returns a shallow copy of the record
func (r *Record) Clone() *Record {
	c := &Record{UUID: r.UUID, Properties: make(map[string]interface{}, len(r.Properties))}
	for k, v := range r.Properties {
		c.Properties[k] = v
	}
	return c
}

// Serialize returns the public representation of the record: its uuid,
// every non-null property and every non-null computed value.
func (d *Descriptor) Serialize(r *Record) map[string]interface{} {
	out := map[string]interface{}{"uuid": r.UUID}
	for _, p := range d.Properties {
		if v, ok := r.Value(p.Name); ok {
			out[p.Name] = v
		}
	}
	for _, c := range d.Computed {
		if c.Get == nil {
			continue
		}
		if v := c.Get(r); v != nil {
			out[c.Name] = v
		}
	}
	return out
}

// Assign sets the named field of the record. Declared properties are coerced
// to their type, settable computed properties are passed to their setter.
// Unknown fields are dropped and reported as not assigned.
func (d *Descriptor) Assign(r *Record, name string, value interface{}) (bool, error) {
	if p, ok := d.props[name]; ok {
		v, err := p.Coerce(value)
		if err != nil {
			return false, err
		}
		if r.Properties == nil {
			r.Properties = map[string]interface{}{}
		}
		r.Properties[name] = v
		return true, nil
	}
	if c, ok := d.computed[name]; ok && c.Settable() {
		if err := c.Set(r, value); err != nil {
			return false, fmt.Errorf("%w: computed property %s: %v", ErrInvalidValue, name, err)
		}
		return true, nil
	}
	return false, nil
}

// AssignAll assigns all given fields, see Assign. Declared properties are assigned
// before computed properties, both in declaration order.
func (d *Descriptor) AssignAll(r *Record, fields map[string]interface{}) error {
	for _, p := range d.Properties {
		if value, ok := fields[p.Name]; ok {
			if _, err := d.Assign(r, p.Name, value); err != nil {
				return err
			}
		}
	}
	for _, c := range d.Computed {
		if value, ok := fields[c.Name]; ok {
			if _, err := d.Assign(r, c.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyDefaults sets every unset property which declares a default
func (d *Descriptor) ApplyDefaults(r *Record) {
	for _, p := range d.Properties {
		if _, ok := r.Value(p.Name); ok {
			continue
		}
		if v, err := p.Default(); err == nil && v != nil {
			r.Properties[p.Name] = v
		}
	}
}

// Reset sets every declared property of the record to null
func (d *Descriptor) Reset(r *Record) {
	r.Properties = make(map[string]interface{}, len(d.Properties))
	for _, p := range d.Properties {
		r.Properties[p.Name] = nil
	}
}

// Normalize coerces stored values back into the declared property types. It is
// used for records read from a store which loses type information, such as JSON.
// Values which cannot be coerced are kept as they are.
func (d *Descriptor) Normalize(r *Record) {
	for name, value := range r.Properties {
		p, ok := d.props[name]
		if !ok || value == nil {
			continue
		}
		if v, err := p.Coerce(value); err == nil {
			r.Properties[name] = v
		}
	}
}
