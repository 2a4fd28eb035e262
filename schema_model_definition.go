package mssqlconv

import (
	"fmt"
	"reflect"
)

// modelDefinitionMap is a map of colName to each field/column defined in struct tags
type modelDefinitionMap map[string]modelDefinitionColInfo

// modelDefinitionColInfo as defined in the user-defined struct field tags
type modelDefinitionColInfo struct {
	fieldName string
	fieldType reflect.Type
}

func newModelDefinitionMap(modelType reflect.Type) (modelDefinitionMap, error) {
	if modelType.Kind() != reflect.Struct {
		err := fmt.Errorf("%w: model should be a struct, got: %s", ErrInvalidDestination, modelType.String())
		return nil, err
	}
	if modelType.NumField() <= 0 {
		err := fmt.Errorf("%w: at least one field should be defined for struct of type: %s", ErrInvalidDestination, modelType.String())
		return nil, err
	}

	schema := make(modelDefinitionMap)
	// generate schema from struct tags:
	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		colName := field.Tag.Get("mssqlconv")
		if colName == "" {
			err := fmt.Errorf("%w: missing column name tag for fieldName: %s", ErrInvalidDestination, field.Name)
			return nil, err
		}
		if !field.IsExported() {
			err := fmt.Errorf("%w: field %s mapped to column '%s' is not exported", ErrInvalidDestination, field.Name, colName)
			return nil, err
		}

		if _, ok := schema[colName]; ok {
			err := fmt.Errorf("%w: duplicate column name found: %s", ErrInvalidDestination, colName)
			return nil, err
		}
		schema[colName] = modelDefinitionColInfo{
			fieldName: field.Name,
			fieldType: field.Type,
		}
	}

	return schema, nil
}
