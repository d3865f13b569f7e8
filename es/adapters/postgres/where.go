package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/getpup/streamstore/es"
)

// propertyColumns maps the accepted message property spellings to stream
// table columns. Fields not listed here pass through quoted so the database
// reports the unknown column.
var propertyColumns = map[string]string{
	"uuid":         "event_id",
	"event_id":     "event_id",
	"event_name":   "event_name",
	"message_name": "event_name",
	"messageName":  "event_name",
	"created_at":   "created_at",
	"createdAt":    "created_at",
	"no":           "no",
}

// buildWhereClause translates matcher predicates into SQL conditions with $N
// placeholders numbered from startIndex, plus their bind arguments.
func buildWhereClause(matches []es.MetadataMatch, startIndex int) ([]string, []any, error) {
	var conditions []string
	var args []any
	n := startIndex

	for _, match := range matches {
		target, err := matchTarget(match)
		if err != nil {
			return nil, nil, err
		}

		switch match.Operator {
		case es.OperatorIn, es.OperatorNotIn:
			values, ok := match.Value.([]any)
			if !ok || len(values) == 0 {
				return nil, nil, fmt.Errorf("%w: operator %s requires a non-empty value list", es.ErrInvalidArgument, match.Operator)
			}
			placeholders := make([]string, len(values))
			for i, value := range values {
				placeholders[i] = "$" + strconv.Itoa(n)
				args = append(args, bindValue(value))
				n++
			}
			conditions = append(conditions, fmt.Sprintf("%s %s (%s)", target, match.Operator, strings.Join(placeholders, ", ")))

		case es.OperatorRegex:
			conditions = append(conditions, fmt.Sprintf("%s ~ $%d", target, n))
			args = append(args, bindValue(match.Value))
			n++

		default:
			if value, ok := match.Value.(bool); ok {
				conditions = append(conditions, booleanCondition(match, target, value))
				continue
			}
			if match.FieldType == es.FieldTypeMetadata && isIntValue(match.Value) {
				target = fmt.Sprintf("CAST(%s AS BIGINT)", target)
			}
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", target, match.Operator, n))
			args = append(args, bindValue(match.Value))
			n++
		}
	}
	return conditions, args, nil
}

func matchTarget(match es.MetadataMatch) (string, error) {
	switch match.FieldType {
	case es.FieldTypeMetadata:
		return fmt.Sprintf("metadata->>'%s'", strings.ReplaceAll(match.Field, "'", "''")), nil
	case es.FieldTypeMessageProperty:
		if column, ok := propertyColumns[match.Field]; ok {
			return column, nil
		}
		return quoteIdent(match.Field), nil
	default:
		return "", fmt.Errorf("%w: unknown match field type %d", es.ErrInvalidArgument, match.FieldType)
	}
}

// booleanCondition inlines boolean comparisons. Metadata extraction yields
// JSON text, so metadata fields compare against the quoted literal.
func booleanCondition(match es.MetadataMatch, target string, value bool) string {
	literal := "false"
	if value {
		literal = "true"
	}
	if match.FieldType == es.FieldTypeMetadata {
		return fmt.Sprintf("%s %s '%s'", target, match.Operator, literal)
	}
	return fmt.Sprintf("%s %s %s", target, match.Operator, literal)
}

// bindValue normalizes bind arguments: times use the canonical layout and
// booleans inside value lists compare against their JSON text form.
func bindValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(es.DateTimeLayout)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return value
	}
}

func isIntValue(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
