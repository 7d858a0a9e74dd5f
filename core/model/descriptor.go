package model

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/relabs-tech/modelrest/core"
)

// ComputedMode tells whether a computed property can be assigned
type ComputedMode int

// all computed property modes
const (
	ReadOnly ComputedMode = iota
	ReadWrite
)

// String returns the mode as used in model definitions
func (m ComputedMode) String() string {
	if m == ReadWrite {
		return "readwrite"
	}
	return "readonly"
}

// ParseComputedMode parses a computed property mode as used in model definitions
func ParseComputedMode(s string) (ComputedMode, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "readonly", "":
		return ReadOnly, nil
	case "readwrite":
		return ReadWrite, nil
	}
	return ReadOnly, fmt.Errorf("unknown computed property mode %q", s)
}

// ComputedProperty is a virtual property derived from the stored properties of a record.
// Set is required for ReadWrite properties and ignored otherwise.
type ComputedProperty struct {
	Name string
	Mode ComputedMode
	Get  func(rec *Record) interface{}
	Set  func(rec *Record, value interface{}) error
}

// Settable returns true if the computed property accepts values
func (c *ComputedProperty) Settable() bool {
	return c.Mode == ReadWrite && c.Set != nil
}

// Options are the model level options. A nil flag means the default, which is true.
type Options struct {
	Expose  *bool `json:"expose,omitempty"`
	Promote *bool `json:"promote,omitempty"`
}

// Descriptor describes a model as discovered from definitions and code.
//
// A descriptor whose discovery did not complete successfully carries an error, see Err().
// Such a model still gets routes, but all of them fail with an internal server error.
type Descriptor struct {
	Name       string
	Properties []*Property
	Computed   []*ComputedProperty
	Options    Options

	props    map[string]*Property
	computed map[string]*ComputedProperty
	err      error
}

var routeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// NewDescriptor creates a descriptor from the given properties and computed properties.
// Use Err() to find out whether the result is usable.
func NewDescriptor(name string, properties []*Property, computed []*ComputedProperty, options Options) *Descriptor {
	d := &Descriptor{
		Name:       name,
		Properties: properties,
		Computed:   computed,
		Options:    options,
	}
	d.err = d.index()
	return d
}

// Fail marks the descriptor as broken.
func (d *Descriptor) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Err returns the discovery error of the model, if any
func (d *Descriptor) Err() error {
	return d.err
}

// RouteName returns the URL segment of the model
func (d *Descriptor) RouteName() string {
	return core.RouteName(d.Name)
}

// Property returns the declared property with the given name
func (d *Descriptor) Property(name string) (*Property, bool) {
	p, ok := d.props[name]
	return p, ok
}

// ComputedProperty returns the computed property with the given name
func (d *Descriptor) ComputedProperty(name string) (*ComputedProperty, bool) {
	c, ok := d.computed[name]
	return c, ok
}

// PropertyNames returns the names of all declared properties in declaration order
func (d *Descriptor) PropertyNames() []string {
	names := make([]string, 0, len(d.Properties))
	for _, p := range d.Properties {
		names = append(names, p.Name)
	}
	return names
}

// Exposed returns false only if the model explicitly opted out of being exposed
func (o Options) Exposed() bool {
	return o.Expose == nil || *o.Expose
}

// Promoted returns false only if the model explicitly opted out of being promoted
func (o Options) Promoted() bool {
	return o.Promote == nil || *o.Promote
}

// Bool returns a pointer to b, for use in Options
func Bool(b bool) *bool {
	return &b
}

func (d *Descriptor) index() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("model without name"))
	} else if rn := d.RouteName(); !routeNamePattern.MatchString(rn) {
		errs = append(errs, fmt.Errorf("model name %q results in invalid route name %q", d.Name, rn))
	}

	d.props = make(map[string]*Property, len(d.Properties))
	for _, p := range d.Properties {
		switch {
		case p.Name == "":
			errs = append(errs, errors.New("property without name"))
			continue
		case p.Name == "uuid":
			errs = append(errs, errors.New("uuid is reserved and cannot be declared as property"))
		case d.props[p.Name] != nil:
			errs = append(errs, fmt.Errorf("duplicate property %s", p.Name))
		}
		if p.Type == "" {
			p.Type = TypeString
		}
		if !p.Type.Valid() {
			errs = append(errs, fmt.Errorf("property %s has unknown type %s", p.Name, p.Type))
		} else if _, err := p.Default(); err != nil {
			errs = append(errs, fmt.Errorf("invalid default: %w", err))
		}
		d.props[p.Name] = p
	}

	d.computed = make(map[string]*ComputedProperty, len(d.Computed))
	for _, c := range d.Computed {
		if err := d.checkComputed(c); err != nil {
			errs = append(errs, err)
		}
		d.computed[c.Name] = c
	}
	return errors.Join(errs...)
}

func (d *Descriptor) checkComputed(c *ComputedProperty) error {
	switch {
	case c.Name == "":
		return errors.New("computed property without name")
	case c.Name == "uuid" || d.props[c.Name] != nil:
		return fmt.Errorf("computed property %s collides with a property", c.Name)
	case d.computed[c.Name] != nil:
		return fmt.Errorf("duplicate computed property %s", c.Name)
	case c.Get == nil:
		return fmt.Errorf("computed property %s is not bound", c.Name)
	case c.Mode == ReadWrite && c.Set == nil:
		return fmt.Errorf("computed property %s is read-write but has no setter", c.Name)
	}
	return nil
}

// sortedProperties creates properties from a definition map in name order
func sortedProperties(defs map[string]map[string]interface{}) []*Property {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	properties := make([]*Property, 0, len(names))
	for _, name := range names {
		p := &Property{Name: name, Options: map[string]interface{}{}}
		for option, value := range defs[name] {
			option = strings.ToLower(option)
			if option == "type" {
				if s, ok := value.(string); ok {
					p.Type = PropertyType(strings.ToLower(s))
				}
				continue
			}
			p.Options[option] = value
		}
		properties = append(properties, p)
	}
	return properties
}
