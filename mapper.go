package mssqlconv

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/kent-id/mssqlconv/types"
)

// ErrInvalidDestination is returned when a mapper destination or model cannot be used.
var ErrInvalidDestination = errors.New("invalid mapper destination")

type dataMapper struct {
	dest                  reflect.Value
	isChannel             bool
	isPointerElem         bool
	modelType             reflect.Type
	modelDefinitionSchema modelDefinitionMap
	registry              *Registry
	converters            *OutputConverters
}

// DataMapper provides abstraction to convert a result set into arbitrary user-defined structs
type DataMapper interface {
	AppendResultSet(ctx context.Context, input *types.ResultSet) error
	WithConverters(converters *OutputConverters) DataMapper
	WithRegistry(registry *Registry) DataMapper
}

// NewMapperFor creates new DataMapper writing into dest.
// dest should be a pointer to a slice or a channel whose element is a struct or a pointer to struct.
// Every struct field must carry a `mssqlconv:"column_name"` tag.
//
// Example:
//
//	var rows []MyStruct
//	mapper, err := mssqlconv.NewMapperFor(&rows)
func NewMapperFor(dest interface{}) (DataMapper, error) {
	if dest == nil {
		return nil, fmt.Errorf("%w: dest is nil", ErrInvalidDestination)
	}

	destValue := reflect.ValueOf(dest)
	var elemType reflect.Type
	isChannel := false
	switch {
	case destValue.Kind() == reflect.Ptr && destValue.Elem().Kind() == reflect.Slice:
		destValue = destValue.Elem()
		elemType = destValue.Type().Elem()
	case destValue.Kind() == reflect.Chan:
		if destValue.Type().ChanDir()&reflect.SendDir == 0 {
			return nil, fmt.Errorf("%w: channel %s is receive-only", ErrInvalidDestination, destValue.Type())
		}
		isChannel = true
		elemType = destValue.Type().Elem()
	default:
		return nil, fmt.Errorf("%w: dest should be a pointer to slice or a channel, got: %T", ErrInvalidDestination, dest)
	}

	isPointerElem := elemType.Kind() == reflect.Ptr
	modelType := elemType
	if isPointerElem {
		modelType = elemType.Elem()
	}

	modelDefinitionSchema, err := newModelDefinitionMap(modelType)
	if err != nil {
		return nil, err
	}

	mapper := &dataMapper{
		dest:                  destValue,
		isChannel:             isChannel,
		isPointerElem:         isPointerElem,
		modelType:             modelType,
		modelDefinitionSchema: modelDefinitionSchema,
		registry:              DefaultRegistry(),
	}
	return mapper, nil
}

// WithConverters runs the given output converters on raw values before conversion.
func (m *dataMapper) WithConverters(converters *OutputConverters) DataMapper {
	m.converters = converters
	return m
}

// WithRegistry resolves column types with registry instead of the default registry.
func (m *dataMapper) WithRegistry(registry *Registry) DataMapper {
	if registry != nil {
		m.registry = registry
	}
	return m
}

// AppendResultSet converts the rows of resultSet and appends them to dest, or sends
// them on dest when it is a channel.
// Returns error if the result set description does not match the model definition.
func (m *dataMapper) AppendResultSet(ctx context.Context, resultSet *types.ResultSet) error {
	if resultSet == nil {
		return fmt.Errorf("%w: result set is nil", ErrMalformedMetadata)
	}
	description, err := m.registry.BuildDescription(resultSet.ResultSetMetadata)
	if err != nil {
		return err
	}
	resultSetSchema, err := newResultSetDefinitionMap(description)
	if err != nil {
		return err
	}

	err = validateResultSetSchema(resultSetSchema, m.modelDefinitionSchema)
	if err != nil {
		return err
	}

	for rowIndex, row := range resultSet.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(row.Data) != len(description) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", ErrMalformedMetadata, rowIndex, len(row.Data), len(description))
		}

		model := reflect.New(m.modelType)
		for colName, modelDefColInfo := range m.modelDefinitionSchema {
			mappedColumnInfo := resultSetSchema[colName]
			field := model.Elem().FieldByName(modelDefColInfo.fieldName)

			raw, err := applyConverter(row.Data[mappedColumnInfo.index].Value, mappedColumnInfo.typeCode, m.converters)
			if err != nil {
				return err
			}
			colData, err := castColumnValue(raw, mappedColumnInfo.typeCode, field.Kind())
			if err != nil {
				return fmt.Errorf("row %d column '%s': %w", rowIndex, colName, err)
			}
			if colData == nil {
				// NULL keeps the zero value
				continue
			}
			value := reflect.ValueOf(colData)
			if !value.Type().AssignableTo(field.Type()) {
				return fmt.Errorf("%w: row %d column '%s' converted to %s, field %s is %s", ErrSchemaMismatch, rowIndex, colName, value.Type(), modelDefColInfo.fieldName, field.Type())
			}
			field.Set(value)
		}

		if err := m.emit(ctx, model); err != nil {
			return err
		}
	}

	return nil
}

func (m *dataMapper) emit(ctx context.Context, model reflect.Value) error {
	if !m.isPointerElem {
		model = model.Elem()
	}
	if !m.isChannel {
		m.dest.Set(reflect.Append(m.dest, model))
		return nil
	}

	cases := []reflect.SelectCase{
		{Dir: reflect.SelectSend, Chan: m.dest, Send: model},
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
	}
	if chosen, _, _ := reflect.Select(cases); chosen == 1 {
		return ctx.Err()
	}
	return nil
}
