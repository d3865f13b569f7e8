package es

import (
	"fmt"
	"reflect"
)

// Operator compares a metadata field or message property against a value.
type Operator int

// Supported match operators.
const (
	OperatorEquals Operator = iota
	OperatorNotEquals
	OperatorGreaterThan
	OperatorGreaterThanEquals
	OperatorIn
	OperatorNotIn
	OperatorLowerThan
	OperatorLowerThanEquals
	OperatorRegex
)

// String returns the SQL-ish spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OperatorEquals:
		return "="
	case OperatorNotEquals:
		return "!="
	case OperatorGreaterThan:
		return ">"
	case OperatorGreaterThanEquals:
		return ">="
	case OperatorIn:
		return "IN"
	case OperatorNotIn:
		return "NOT IN"
	case OperatorLowerThan:
		return "<"
	case OperatorLowerThanEquals:
		return "<="
	case OperatorRegex:
		return "REGEX"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// FieldType selects what a match predicate targets.
type FieldType int

const (
	// FieldTypeMetadata matches a field inside the metadata JSON document.
	FieldTypeMetadata FieldType = iota

	// FieldTypeMessageProperty matches a column of the stream table:
	// event_id (alias uuid), event_name (aliases message_name,
	// messageName), created_at (alias createdAt) or no.
	FieldTypeMessageProperty
)

// MetadataMatch is a single predicate of a MetadataMatcher.
type MetadataMatch struct {
	// Value is the comparison value. For OperatorIn and OperatorNotIn it
	// is a []any holding one element per member.
	Value any

	// Field is the metadata key or property name to match
	Field string

	// Operator compares the field against Value
	Operator Operator

	// FieldType selects metadata or message property matching
	FieldType FieldType
}

// MetadataMatcher is an immutable set of predicates restricting which
// events a load or stream enumeration returns. The zero value matches
// everything.
type MetadataMatcher struct {
	matches []MetadataMatch
}

// Matches returns the accumulated predicates in insertion order.
func (m MetadataMatcher) Matches() []MetadataMatch {
	return m.matches
}

// WithMetadataMatch returns a copy of the matcher with an added predicate
// against a metadata field.
func (m MetadataMatcher) WithMetadataMatch(field string, operator Operator, value any) (MetadataMatcher, error) {
	return m.withMatch(field, operator, value, FieldTypeMetadata)
}

// WithPropertyMatch returns a copy of the matcher with an added predicate
// against a message property (a base column of the stream table).
func (m MetadataMatcher) WithPropertyMatch(field string, operator Operator, value any) (MetadataMatcher, error) {
	return m.withMatch(field, operator, value, FieldTypeMessageProperty)
}

func (m MetadataMatcher) withMatch(field string, operator Operator, value any, fieldType FieldType) (MetadataMatcher, error) {
	normalized, err := validateMatchValue(operator, value)
	if err != nil {
		return MetadataMatcher{}, err
	}

	matches := make([]MetadataMatch, len(m.matches), len(m.matches)+1)
	copy(matches, m.matches)
	matches = append(matches, MetadataMatch{
		Field:     field,
		Operator:  operator,
		Value:     normalized,
		FieldType: fieldType,
	})
	return MetadataMatcher{matches: matches}, nil
}

func validateMatchValue(operator Operator, value any) (any, error) {
	isList := operator == OperatorIn || operator == OperatorNotIn

	if operator == OperatorRegex {
		if _, ok := value.(string); !ok {
			return nil, fmt.Errorf("%w: value must be a string when using regex operator", ErrInvalidArgument)
		}
		return value, nil
	}

	elems, sliceValue := toAnySlice(value)
	if isList {
		if !sliceValue {
			return nil, fmt.Errorf("%w: value must be a slice when using operator %s", ErrInvalidArgument, operator)
		}
		return elems, nil
	}
	if sliceValue {
		return nil, fmt.Errorf("%w: value must not be a slice when using operator %s", ErrInvalidArgument, operator)
	}
	return value, nil
}

// toAnySlice normalizes any slice or array value to []any.
// []byte counts as a scalar.
func toAnySlice(value any) ([]any, bool) {
	if _, ok := value.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
