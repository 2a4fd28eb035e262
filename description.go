package mssqlconv

import (
	"errors"
	"fmt"

	"github.com/kent-id/mssqlconv/types"
)

// ErrMalformedMetadata is returned when the driver supplied column metadata that
// cannot describe a column.
var ErrMalformedMetadata = errors.New("malformed column metadata")

// ColumnDescription describes one result set column, field for field like a
// DB-API cursor.description entry.
type ColumnDescription struct {
	Name         string
	TypeCode     TypeDescriptor
	DisplaySize  int64
	InternalSize int64
	Precision    int64
	Scale        int64
	Nullable     bool
}

// Tuple returns the positional form (name, type_code, display_size,
// internal_size, precision, scale, null_ok).
func (c ColumnDescription) Tuple() [7]interface{} {
	return [7]interface{}{c.Name, c.TypeCode, c.DisplaySize, c.InternalSize, c.Precision, c.Scale, c.Nullable}
}

// Description is the ordered list of column descriptions of a result set.
type Description []ColumnDescription

// Names returns the column names in result set order.
func (d Description) Names() []string {
	names := make([]string, len(d))
	for i, col := range d {
		names[i] = col.Name
	}
	return names
}

// TypeCodes returns the column type descriptors in result set order.
func (d Description) TypeCodes() []TypeDescriptor {
	codes := make([]TypeDescriptor, len(d))
	for i, col := range d {
		codes[i] = col.TypeCode
	}
	return codes
}

// Index returns the position of the first column called name.
func (d Description) Index(name string) (int, bool) {
	for i, col := range d {
		if col.Name == name {
			return i, true
		}
	}
	return -1, false
}

// BuildDescription describes each column of metadata using the default registry.
func BuildDescription(metadata *types.ResultSetMetadata) (Description, error) {
	return DefaultRegistry().BuildDescription(metadata)
}

// BuildDescription describes each column of metadata, preserving the driver's column order.
// A result set without columns yields a nil Description and no error.
func (r *Registry) BuildDescription(metadata *types.ResultSetMetadata) (Description, error) {
	if metadata == nil {
		return nil, fmt.Errorf("%w: result set metadata is nil", ErrMalformedMetadata)
	}
	if len(metadata.ColumnInfo) == 0 {
		return nil, nil
	}

	description := make(Description, len(metadata.ColumnInfo))
	for index, columnInfo := range metadata.ColumnInfo {
		if err := validateColumnInfo(index, columnInfo); err != nil {
			return nil, err
		}

		if !r.Recognizes(columnInfo.Type) {
			LogWarnf("column '%s' has unrecognized sql type %d, describing it as unknown", *columnInfo.Name, columnInfo.Type)
		} else if columnInfo.Type == types.SQLSSUDT && columnInfo.UDTSubtype == nil {
			LogDebugf("column '%s' is a UDT of unknown kind, describing it as binary", *columnInfo.Name)
		}

		description[index] = ColumnDescription{
			Name:         *columnInfo.Name,
			TypeCode:     r.Describe(columnInfo.Type, columnInfo.UDTSubtype),
			DisplaySize:  columnInfo.DisplaySize,
			InternalSize: columnInfo.InternalSize,
			Precision:    columnInfo.Precision,
			Scale:        columnInfo.Scale,
			Nullable:     columnInfo.Nullable,
		}
	}
	return description, nil
}

func validateColumnInfo(index int, columnInfo types.ColumnInfo) error {
	if columnInfo.Name == nil {
		return fmt.Errorf("%w: column name is missing, index: %d, columnInfo: %+v", ErrMalformedMetadata, index, columnInfo)
	}

	sizes := []struct {
		field string
		value int64
	}{
		{"display size", columnInfo.DisplaySize},
		{"internal size", columnInfo.InternalSize},
		{"precision", columnInfo.Precision},
		{"scale", columnInfo.Scale},
	}
	// -1 is how drivers report unbounded sizes
	for _, size := range sizes {
		if size.value < -1 {
			return fmt.Errorf("%w: negative %s %d, index: %d, name: %s", ErrMalformedMetadata, size.field, size.value, index, *columnInfo.Name)
		}
	}
	return nil
}
