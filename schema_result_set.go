package mssqlconv

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrSchemaMismatch is returned when a result set cannot be mapped onto the model.
var ErrSchemaMismatch = errors.New("result set does not match model")

// resultSetDefinitionMap is a map of colName to each column returned by the query
type resultSetDefinitionMap map[string]resultSetColInfo

// resultSetColInfo as described by the result set description
type resultSetColInfo struct {
	index    int
	typeCode TypeDescriptor
}

// newResultSetDefinitionMap indexes a description by column name
func newResultSetDefinitionMap(description Description) (resultSetDefinitionMap, error) {
	if len(description) <= 0 {
		err := fmt.Errorf("%w: at least one column should be returned by the query", ErrSchemaMismatch)
		return nil, err
	}

	schema := make(resultSetDefinitionMap)
	for index, col := range description {
		if col.Name == "" {
			err := fmt.Errorf("%w: column name from result set is empty, index: %d, type: %s", ErrSchemaMismatch, index, col.TypeCode)
			return nil, err
		}

		if _, ok := schema[col.Name]; ok {
			err := fmt.Errorf("%w: duplicate column name from result set, index: %d, name: %s", ErrSchemaMismatch, index, col.Name)
			return nil, err
		}
		schema[col.Name] = resultSetColInfo{
			index:    index,
			typeCode: col.TypeCode,
		}
	}
	return schema, nil
}

func validateResultSetSchema(resultSetSchema resultSetDefinitionMap, modelDefSchema modelDefinitionMap) error {
	modelSchemaLength := len(modelDefSchema)
	resultMetadataSchemaLength := len(resultSetSchema)
	if modelSchemaLength != resultMetadataSchemaLength {
		err := fmt.Errorf("%w: mismatched schema definition and result set columns count, modelSchemaLength: %d, resultMetadataSchemaLength: %d", ErrSchemaMismatch, modelSchemaLength, resultMetadataSchemaLength)
		return err
	}

	for key, modelCol := range modelDefSchema {
		resultSetCol, ok := resultSetSchema[key]
		if !ok {
			err := fmt.Errorf("%w: column '%s' is defined in model schema but not found in result set", ErrSchemaMismatch, key)
			return err
		}
		if !fieldAcceptsColumn(modelCol.fieldType, resultSetCol.typeCode) {
			err := fmt.Errorf("%w: column '%s' of type %s cannot be stored in field %s of type %s", ErrSchemaMismatch, key, resultSetCol.typeCode, modelCol.fieldName, modelCol.fieldType)
			return err
		}
	}

	return nil
}

// fieldAcceptsColumn reports whether a field of fieldType can hold values of the column:
// the field type is the column's host type, a pointer to it, or an interface.
func fieldAcceptsColumn(fieldType reflect.Type, typeCode TypeDescriptor) bool {
	if fieldType.Kind() == reflect.Interface || Equal(fieldType, typeCode) {
		return true
	}
	if fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	return Equal(fieldType, typeCode)
}
