package database

import (
	"fmt"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/record"
)

// QueryResult is the uniform shape of an operation's outcome, ready for
// rendering.
type QueryResult struct {
	Success      bool
	Columns      []string
	Rows         [][]string
	RowsAffected int
	Message      string
	Error        error
}

// ResultFormatter handles formatting of operation results
type ResultFormatter struct{}

// NewResultFormatter creates a new instance of ResultFormatter
func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{}
}

// FormatSelect converts selected records to rows under the schema's field names.
func (f *ResultFormatter) FormatSelect(sch *schema.Schema, records []record.Record) QueryResult {
	if sch == nil {
		return QueryResult{
			Success: true,
			Message: "Query returned no results",
			Rows:    [][]string{},
		}
	}

	numFields := sch.NumFields()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, numFields)
		for i := 0; i < numFields; i++ {
			row[i] = rec.Field(i)
		}
		rows = append(rows, row)
	}

	return QueryResult{
		Success: true,
		Columns: sch.FieldNames(),
		Rows:    rows,
		Message: fmt.Sprintf("%d row(s) returned", len(rows)),
	}
}

// FormatMutation reports how many records an insert or delete affected.
func (f *ResultFormatter) FormatMutation(action string, affected int) QueryResult {
	return QueryResult{
		Success:      true,
		RowsAffected: affected,
		Message:      fmt.Sprintf("%d row(s) %s", affected, action),
	}
}

// FormatError wraps a failed operation.
func (f *ResultFormatter) FormatError(err error) QueryResult {
	return QueryResult{
		Success: false,
		Message: err.Error(),
		Error:   err,
	}
}
