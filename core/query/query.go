// Package query parses the compact search expressions used with ?q=
// and evaluates them against records.
//
// Three forms are supported, tried in this order:
//
//	name:between:lower:upper
//	name:operation:value
//	name:null, name:notnull
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/relabs-tech/modelrest/core/model"
)

// all known operations
const (
	OperationEqual          = "eq"
	OperationNotEqual       = "neq"
	OperationLess           = "lt"
	OperationLessOrEqual    = "lte"
	OperationGreater        = "gt"
	OperationGreaterOrEqual = "gte"
	OperationBetween        = "between"
	OperationNull           = "null"
	OperationNotNull        = "notnull"
)

// ErrUnsupportedOperation is returned when a predicate uses an operation which cannot be evaluated
var ErrUnsupportedOperation = errors.New("unsupported operation")

var (
	ternary = regexp.MustCompile(`(?i)^([^\s:]+):(between):([^:]+):(.+)$`)
	binary  = regexp.MustCompile(`(?i)^([^\s:]+):([a-z]{2,}):(.+)$`)
	unary   = regexp.MustCompile(`(?i)^([^\s:]+):((?:not)?null)$`)
)

// Predicate is a parsed search expression. Value is set for binary operations,
// Lower and Upper for between.
type Predicate struct {
	Operation string
	Name      string
	Value     string
	Lower     string
	Upper     string
}

// Parse parses a search expression. The second return value is false if the
// text is not a valid expression. Operation names are lowercased, values are
// kept as they are.
func Parse(text string) (Predicate, bool) {
	if m := ternary.FindStringSubmatch(text); m != nil {
		return Predicate{
			Operation: strings.ToLower(m[2]),
			Name:      m[1],
			Lower:     m[3],
			Upper:     m[4],
		}, true
	}
	if m := binary.FindStringSubmatch(text); m != nil {
		return Predicate{
			Operation: strings.ToLower(m[2]),
			Name:      m[1],
			Value:     m[3],
		}, true
	}
	if m := unary.FindStringSubmatch(text); m != nil {
		return Predicate{
			Operation: strings.ToLower(m[2]),
			Name:      m[1],
		}, true
	}
	return Predicate{}, false
}

// Arity returns the number of operands the predicate's operation takes.
func (p Predicate) Arity() int {
	switch p.Operation {
	case OperationNull, OperationNotNull:
		return 0
	case OperationBetween:
		return 2
	}
	return 1
}

// Validate returns ErrUnsupportedOperation if the operation is unknown or used
// with the wrong number of operands.
func (p Predicate) Validate() error {
	switch p.Operation {
	case OperationEqual, OperationNotEqual, OperationLess, OperationLessOrEqual,
		OperationGreater, OperationGreaterOrEqual:
		if p.Lower != "" || p.Upper != "" {
			break
		}
		return nil
	case OperationBetween:
		if p.Lower == "" || p.Upper == "" {
			break
		}
		return nil
	case OperationNull, OperationNotNull:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, p.Operation)
}

// MarshalJSON renders the predicate in its structured form, e.g.
// {"eq":{"name":"a","value":"b"}} or {"between":{"name":"a","lower":"1","upper":"2"}}.
func (p Predicate) MarshalJSON() ([]byte, error) {
	args := map[string]string{"name": p.Name}
	switch p.Arity() {
	case 1:
		args["value"] = p.Value
	case 2:
		args["lower"] = p.Lower
		args["upper"] = p.Upper
	}
	return json.Marshal(map[string]interface{}{p.Operation: args})
}

// String returns the predicate in its textual form
func (p Predicate) String() string {
	switch p.Arity() {
	case 0:
		return p.Name + ":" + p.Operation
	case 2:
		return p.Name + ":" + p.Operation + ":" + p.Lower + ":" + p.Upper
	}
	return p.Name + ":" + p.Operation + ":" + p.Value
}

// Match evaluates the predicate against a property value. Comparisons with a
// missing value never match.
func (p Predicate) Match(value interface{}) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	switch p.Operation {
	case OperationNull:
		return value == nil, nil
	case OperationNotNull:
		return value != nil, nil
	}
	if value == nil {
		return false, nil
	}
	switch p.Operation {
	case OperationEqual:
		return model.Compare(value, p.Value) == 0, nil
	case OperationNotEqual:
		return model.Compare(value, p.Value) != 0, nil
	case OperationLess:
		return model.Compare(value, p.Value) < 0, nil
	case OperationLessOrEqual:
		return model.Compare(value, p.Value) <= 0, nil
	case OperationGreater:
		return model.Compare(value, p.Value) > 0, nil
	case OperationGreaterOrEqual:
		return model.Compare(value, p.Value) >= 0, nil
	case OperationBetween:
		return model.Compare(value, p.Lower) >= 0 && model.Compare(value, p.Upper) <= 0, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedOperation, p.Operation)
}

// MatchRecord evaluates the predicate against the named property of a record
func (p Predicate) MatchRecord(rec *model.Record) (bool, error) {
	v, _ := rec.Value(p.Name)
	return p.Match(v)
}
