package types

// The metadata and rows that comprise a query result set, as delivered by the
// statement-execution layer. The metadata describes the column structure and the
// native SQL types of each column.
type ResultSet struct {
	// The metadata that describes the column structure and data types of a table of
	// query results.
	ResultSetMetadata *ResultSetMetadata

	// The rows in the table.
	Rows []Row
}

// The metadata that describes the column structure and data types of a table of
// query results, in the order the native driver returned the columns.
type ResultSetMetadata struct {

	// Information about the columns returned in a query result metadata.
	ColumnInfo []ColumnInfo
}

// Information about a single result set column as reported by the driver.
type ColumnInfo struct {

	// The name of the column. Expression columns without an alias carry an empty name.
	//
	// This member is required.
	Name *string

	// The native SQL type code of the column.
	Type SQLType

	// The UDT kind, set only when Type is SQLSSUDT and the driver could identify it.
	UDTSubtype *UDTSubtype

	// Maximum number of characters needed to display a value. 0 when not applicable.
	DisplaySize int64

	// Size of the value in bytes. -1 for unbounded (MAX / UDT) columns.
	InternalSize int64

	// For numeric types the total number of digits, otherwise the column size.
	Precision int64

	// For numeric and time types the number of fractional digits.
	Scale int64

	// Indicates whether the column accepts NULL.
	Nullable bool
}

// The rows that comprise a query result table.
type Row struct {
	// The data that populates a row in a query result table.
	Data []Datum
}

// A piece of data (a field in the table).
type Datum struct {
	// The raw value as scanned from the driver. nil is SQL NULL.
	Value interface{}
}
