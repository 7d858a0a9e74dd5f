package backend

import (
	"strings"

	"github.com/relabs-tech/modelrest/core/model"
)

// publicSchema returns the schema of a model as exposed to clients: the declared
// properties with their options, without index options, and for every computed
// property whether it can be assigned.
func publicSchema(d *model.Descriptor) map[string]interface{} {
	props := map[string]interface{}{}
	for _, p := range d.Properties {
		attributes := map[string]interface{}{}
		for option, value := range p.Options {
			if value == nil || isIndexOption(option) {
				continue
			}
			attributes[option] = value
		}
		propertyType := string(p.Type)
		if propertyType == "" {
			propertyType = string(model.TypeString)
		}
		attributes["type"] = propertyType
		props[p.Name] = attributes
	}

	computed := map[string]bool{}
	for _, c := range d.Computed {
		computed[c.Name] = c.Settable()
	}

	return map[string]interface{}{
		"name":     d.Name,
		"props":    props,
		"computed": computed,
	}
}

func isIndexOption(option string) bool {
	switch strings.ToLower(option) {
	case "index", "indexes", "indices":
		return true
	}
	return false
}
