package postgres

import "fmt"

// TableNames holds schema-qualified table names so queries never hardcode the
// schema. Interpolation happens before the SQL reaches the driver, so each
// schema gets its own prepared statements.
type TableNames struct {
	Folders   string
	Documents string
}

// NewTableNames qualifies the RDM tables with the given schema.
func NewTableNames(schema string) *TableNames {
	return &TableNames{
		Folders:   fmt.Sprintf("%s.folders", schema),
		Documents: fmt.Sprintf("%s.documents", schema),
	}
}
