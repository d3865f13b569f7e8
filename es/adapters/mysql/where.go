package mysql

import (
	"fmt"
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

// buildWhereClause translates matcher predicates into SQL conditions with ?
// placeholders, plus their bind arguments.
func buildWhereClause(matches []es.MetadataMatch) ([]string, []any, error) {
	var conditions []string
	var args []any

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
				placeholders[i] = "?"
				args = append(args, bindValue(value))
			}
			conditions = append(conditions, fmt.Sprintf("%s %s (%s)", target, match.Operator, strings.Join(placeholders, ", ")))

		case es.OperatorRegex:
			conditions = append(conditions, target+" REGEXP ?")
			args = append(args, bindValue(match.Value))

		default:
			if value, ok := match.Value.(bool); ok {
				conditions = append(conditions, booleanCondition(match, target, value))
				continue
			}
			conditions = append(conditions, fmt.Sprintf("%s %s ?", target, match.Operator))
			args = append(args, bindValue(match.Value))
		}
	}
	return conditions, args, nil
}

func matchTarget(match es.MetadataMatch) (string, error) {
	switch match.FieldType {
	case es.FieldTypeMetadata:
		return fmt.Sprintf("json_value(metadata, '$.%s')", strings.ReplaceAll(match.Field, "'", "''")), nil
	case es.FieldTypeMessageProperty:
		if column, ok := propertyColumns[match.Field]; ok {
			return column, nil
		}
		return quoteIdent(match.Field), nil
	default:
		return "", fmt.Errorf("%w: unknown match field type %d", es.ErrInvalidArgument, match.FieldType)
	}
}

// booleanCondition inlines boolean comparisons as 1 and 0; the JSON
// functions report booleans numerically.
func booleanCondition(match es.MetadataMatch, target string, value bool) string {
	literal := "0"
	if value {
		literal = "1"
	}
	return fmt.Sprintf("%s %s %s", target, match.Operator, literal)
}

// bindValue normalizes bind arguments: times use the canonical layout and
// booleans inside value lists bind in their numeric form.
func bindValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(es.DateTimeLayout)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return value
	}
}
