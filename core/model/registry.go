package model

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/schema"
	"gopkg.in/yaml.v3"
)

//go:embed definitions
var definitionsFS embed.FS

// DefinitionSchemaID is the JSON schema all model definitions are validated against
const DefinitionSchemaID = "https://modelrest.relabs.tech/schemas/model.json"

// ErrUnknownModel is returned when a model is not registered
var ErrUnknownModel = errors.New("unknown model")

// Definition is the declarative form of a model, as found in JSON, YAML or TOML model files.
//
// Computed properties are declared with their mode only, their functions must be bound
// in code with Registry.Bind before the model becomes usable.
type Definition struct {
	Name       string                            `json:"name"`
	Properties map[string]map[string]interface{} `json:"properties,omitempty"`
	Computed   map[string]string                 `json:"computed,omitempty"`
	Options    Options                           `json:"options"`
}

// Registry holds the descriptors of all known models in definition order
type Registry struct {
	models    []*Descriptor
	byRoute   map[string]*Descriptor
	validator *schema.Validator
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	validator, err := schema.Load(definitionsFS, "definitions")
	if err != nil {
		panic(err)
	}
	return &Registry{
		byRoute:   map[string]*Descriptor{},
		validator: validator,
	}
}

// Define adds a descriptor to the registry. Two models mapping to the same
// route name are rejected.
func (r *Registry) Define(d *Descriptor) error {
	rn := d.RouteName()
	if rn == "" {
		return errors.New("cannot register model without name")
	}
	if _, ok := r.byRoute[rn]; ok {
		return fmt.Errorf("model %s is already registered", d.Name)
	}
	r.models = append(r.models, d)
	r.byRoute[rn] = d
	return nil
}

// Models returns all registered models in definition order. Computed properties
// which were declared but never bound turn their model into a broken one.
func (r *Registry) Models() []*Descriptor {
	for _, d := range r.models {
		for _, c := range d.Computed {
			switch {
			case c.Get == nil:
				d.Fail(fmt.Errorf("computed property %s is not bound", c.Name))
			case c.Mode == ReadWrite && c.Set == nil:
				d.Fail(fmt.Errorf("computed property %s is read-write but has no setter", c.Name))
			}
		}
	}
	return r.models
}

// Lookup returns the model with the given name or route name
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d, ok := r.byRoute[core.RouteName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return d, nil
}

// Bind supplies the functions of a computed property declared in a model definition.
// Binding a computed property which was not declared adds it to the model, read-write
// if a setter is given.
func (r *Registry) Bind(modelName, name string, get func(*Record) interface{}, set func(*Record, interface{}) error) error {
	d, err := r.Lookup(modelName)
	if err != nil {
		return err
	}
	if get == nil {
		return fmt.Errorf("computed property %s needs a getter", name)
	}
	c, ok := d.ComputedProperty(name)
	if !ok {
		c = &ComputedProperty{Name: name, Mode: ReadOnly, Get: get, Set: set}
		if set != nil {
			c.Mode = ReadWrite
		}
		if err := d.checkComputed(c); err != nil {
			return err
		}
		d.Computed = append(d.Computed, c)
		d.computed[name] = c
	}
	c.Get = get
	c.Set = set
	return nil
}

// LoadFile loads model definitions from a JSON, YAML or TOML file. The file holds either
// a list of definitions or an object with a "models" list.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read model file: %w", err)
	}
	var raw interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		var m map[string]interface{}
		_, err = toml.Decode(string(data), &m)
		raw = m
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return fmt.Errorf("cannot parse model file %s: %w", path, err)
	}
	return r.load(raw)
}

// LoadJSON loads model definitions from JSON data, see LoadFile
func (r *Registry) LoadJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot parse model definitions: %w", err)
	}
	return r.load(raw)
}

func (r *Registry) load(raw interface{}) error {
	var definitions []interface{}
	switch v := normalizeKeys(raw).(type) {
	case []interface{}:
		definitions = v
	case map[string]interface{}:
		if models, ok := v["models"]; ok {
			list, ok := models.([]interface{})
			if !ok {
				return errors.New("models must be a list")
			}
			definitions = list
		} else {
			definitions = []interface{}{v}
		}
	default:
		return errors.New("model definitions must be a list or an object")
	}

	rlog := logger.ForComponent("models")
	for _, definition := range definitions {
		d, err := r.compile(definition)
		if err != nil {
			return err
		}
		if err := d.Err(); err != nil {
			rlog.WithError(err).Errorf("model %s is broken", d.Name)
		}
		if err := r.Define(d); err != nil {
			return err
		}
	}
	return nil
}

// compile turns a raw definition into a descriptor. Only definitions without usable
// name are rejected, all other problems result in a broken descriptor.
func (r *Registry) compile(raw interface{}) (*Descriptor, error) {
	validationErr := r.validator.Validate(raw, DefinitionSchemaID)

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		var named struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(data, &named) != nil || named.Name == "" {
			return nil, fmt.Errorf("invalid model definition: %w", err)
		}
		d := NewDescriptor(named.Name, nil, nil, Options{})
		d.Fail(err)
		return d, nil
	}
	if def.Name == "" {
		return nil, errors.New("invalid model definition: name is missing")
	}

	d := def.Descriptor()
	d.Fail(validationErr)
	return d, nil
}

// Descriptor creates the descriptor of the definition. Computed properties are unbound.
func (def *Definition) Descriptor() *Descriptor {
	names := make([]string, 0, len(def.Computed))
	for name := range def.Computed {
		names = append(names, name)
	}
	sort.Strings(names)

	var computed []*ComputedProperty
	var modeErr error
	for _, name := range names {
		mode, err := ParseComputedMode(def.Computed[name])
		if err != nil {
			modeErr = err
		}
		computed = append(computed, &ComputedProperty{Name: name, Mode: mode})
	}
	d := NewDescriptor(def.Name, sortedProperties(def.Properties), nil, def.Options)
	// computed properties get their functions later, they are checked by Models()
	d.Computed = computed
	for _, c := range computed {
		d.computed[c.Name] = c
	}
	d.Fail(modeErr)
	return d
}

// normalizeKeys converts map[interface{}]interface{} as produced by some decoders
// into map[string]interface{}, recursively.
func normalizeKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, v := range t {
			m[fmt.Sprint(k)] = normalizeKeys(v)
		}
		return m
	case map[string]interface{}:
		for k, v := range t {
			t[k] = normalizeKeys(v)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = normalizeKeys(t[i])
		}
		return t
	case []map[string]interface{}:
		list := make([]interface{}, len(t))
		for i := range t {
			list[i] = normalizeKeys(t[i])
		}
		return list
	}
	return v
}
