package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Operation represents a record operation, one of Create, Read, Update, Replace, Delete, List, Search
//
type Operation string

// all supported record operations
const (
	OperationCreate  Operation = "create"
	OperationRead    Operation = "read"
	OperationUpdate  Operation = "update"
	OperationReplace Operation = "replace"
	OperationDelete  Operation = "delete"
	OperationList    Operation = "list"
	OperationSearch  Operation = "search"
)

// UnmarshalJSON is a custom JSON unmarshaller
func (o *Operation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Operation(s)
	switch *o {
	case OperationCreate, OperationRead, OperationUpdate, OperationReplace,
		OperationDelete, OperationList, OperationSearch:
		return nil
	default:
		return fmt.Errorf("%s is not valid Operation", s)
	}
}

// Modifying returns true if the operation changes stored records
func (o Operation) Modifying() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationReplace, OperationDelete:
		return true
	}
	return false
}

// Notifier is an interface to receive record notifications
type Notifier interface {
	Notify(ctx context.Context, model string, operation Operation, id string, payload []byte)
}

// RouteName converts a model name into the URL segment used for its routes.
//
// This is the algorithm used to create idiomatic REST routes. Example: "ComputedEnum",
// "computedEnum" and "computed_enum" all become "computed-enum".
func RouteName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteRune('-')
			}
			continue
		case unicode.IsUpper(r):
			if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteRune('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
