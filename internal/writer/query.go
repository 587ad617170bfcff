// Package writer persists imported objects into SQL sinks.
//
// Each writer opens one transaction lazily on the first Write, isolates
// every row in its own savepoint, and commits in Finish. A failed row is
// rolled back to its savepoint and reported as a core.WriteError without
// touching the rows around it.
package writer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/productimport/internal/core"
)

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func dollar(i int) string { return "$" + strconv.Itoa(i) }

func question(int) string { return "?" }

// insertSQL builds a parameterized INSERT for columns of table.
func insertSQL(table string, columns []string, placeholder func(i int) string) string {
	cols := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quoteIdentifier(c)
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
	)
}

func existsSQL(table, column, placeholder string) string {
	return fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = %s)",
		quoteIdentifier(table), quoteIdentifier(column), placeholder)
}

func savepointName(n int) string {
	return "sp_" + strconv.Itoa(n)
}

// rowArgs stamps obj and maps it to column values.
func rowArgs(def core.TargetDefinition, obj any, now time.Time) ([]any, error) {
	if def.Row == nil {
		return nil, errors.Newf("target %s has no row mapper", def.Info.Key)
	}
	if p, ok := obj.(core.Persistable); ok {
		p.PrePersist(now)
	}
	args, err := def.Row(obj)
	if err != nil {
		return nil, err
	}
	if len(args) != len(def.Columns) {
		return nil, errors.Newf("row has %d values for %d columns", len(args), len(def.Columns))
	}
	return args, nil
}
