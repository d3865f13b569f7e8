package projection

import (
	"strconv"
	"strings"
)

// Dialect selects the placeholder flavor for the SQL the runners issue
// against the projections and event streams tables. The projection manager
// of each adapter package passes the matching value when constructing
// projectors and queries.
type Dialect int

const (
	// DialectMySQL binds parameters with ? placeholders.
	DialectMySQL Dialect = iota
	// DialectMariaDB binds parameters with ? placeholders.
	DialectMariaDB
	// DialectPostgres binds parameters with $1..$N placeholders.
	DialectPostgres
)

// rebind rewrites ? placeholders into the dialect's flavor. The internal
// queries never contain a literal question mark, so a plain scan suffices.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}
