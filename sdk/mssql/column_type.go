package mssql

import (
	"reflect"
	"strings"

	"github.com/kent-id/mssqlconv"
	"github.com/kent-id/mssqlconv/types"
	"github.com/kent-id/mssqlconv/util"
)

// ColumnType is the column metadata a database/sql driver reports; *sql.ColumnType implements it.
type ColumnType interface {
	Name() string
	Length() (length int64, ok bool)
	DecimalSize() (precision, scale int64, ok bool)
	ScanType() reflect.Type
	Nullable() (nullable, ok bool)
	DatabaseTypeName() string
}

// lengths at or above this are (MAX) columns
const maxLengthThreshold = 1<<30 - 1

// typeNameInfo describes how a SQL Server type name maps onto ODBC metadata.
type typeNameInfo struct {
	code         types.SQLType
	maxCode      types.SQLType // code for the (MAX) variant, 0 if the type has none
	columnSize   int64         // fixed column size, 0 when it depends on length/precision
	internalSize int64         // fixed octet length, 0 when it depends on length
	charWidth    int64         // bytes per character for variable length types
	scale        int64         // fixed scale
	timeBase     int64         // column size of a time type without fractional seconds
}

// See https://learn.microsoft.com/en-us/sql/odbc/reference/appendixes/column-size
var typeNames = map[string]typeNameInfo{
	"BIT":              {code: types.SQLBit, columnSize: 1, internalSize: 1},
	"TINYINT":          {code: types.SQLTinyInt, columnSize: 3, internalSize: 1},
	"SMALLINT":         {code: types.SQLSmallInt, columnSize: 5, internalSize: 2},
	"INT":              {code: types.SQLInteger, columnSize: 10, internalSize: 4},
	"BIGINT":           {code: types.SQLBigInt, columnSize: 19, internalSize: 8},
	"REAL":             {code: types.SQLReal, columnSize: 24, internalSize: 4},
	"FLOAT":            {code: types.SQLFloat, columnSize: 53, internalSize: 8},
	"DECIMAL":          {code: types.SQLDecimal},
	"NUMERIC":          {code: types.SQLNumeric},
	"MONEY":            {code: types.SQLDecimal, columnSize: 19, internalSize: 8, scale: 4},
	"SMALLMONEY":       {code: types.SQLDecimal, columnSize: 10, internalSize: 4, scale: 4},
	"DATE":             {code: types.SQLTypeDate, columnSize: 10, internalSize: 6},
	"TIME":             {code: types.SQLSSTime2, internalSize: 12, timeBase: 8},
	"SMALLDATETIME":    {code: types.SQLTypeTimestamp, columnSize: 16, internalSize: 16},
	"DATETIME":         {code: types.SQLTypeTimestamp, columnSize: 23, internalSize: 16, scale: 3},
	"DATETIME2":        {code: types.SQLTypeTimestamp, internalSize: 16, timeBase: 19},
	"DATETIMEOFFSET":   {code: types.SQLSSTimestampOffset, internalSize: 20, timeBase: 26},
	"CHAR":             {code: types.SQLChar, charWidth: 1},
	"VARCHAR":          {code: types.SQLVarChar, maxCode: types.SQLLongVarChar, charWidth: 1},
	"TEXT":             {code: types.SQLLongVarChar, maxCode: types.SQLLongVarChar, charWidth: 1},
	"NCHAR":            {code: types.SQLWChar, charWidth: 2},
	"NVARCHAR":         {code: types.SQLWVarChar, maxCode: types.SQLWLongVarChar, charWidth: 2},
	"NTEXT":            {code: types.SQLWLongVarChar, maxCode: types.SQLWLongVarChar, charWidth: 2},
	"BINARY":           {code: types.SQLBinary, charWidth: 1},
	"VARBINARY":        {code: types.SQLVarBinary, maxCode: types.SQLLongVarBinary, charWidth: 1},
	"IMAGE":            {code: types.SQLLongVarBinary, maxCode: types.SQLLongVarBinary, charWidth: 1},
	"UNIQUEIDENTIFIER": {code: types.SQLGUID, columnSize: 36, internalSize: 16},
	"SQL_VARIANT":      {code: types.SQLSSVariant, columnSize: 8000, internalSize: 8016},
	"XML":              {code: types.SQLSSXML, maxCode: types.SQLSSXML},
	"UDT":              {code: types.SQLSSUDT, maxCode: types.SQLSSUDT},
}

// preferred codes when only the Go scan type is known
var scanTypePreference = []types.SQLType{
	types.SQLBigInt,
	types.SQLWVarChar,
	types.SQLDouble,
	types.SQLBit,
	types.SQLVarBinary,
	types.SQLTypeTimestamp,
	types.SQLDecimal,
	types.SQLGUID,
}

// ColumnInfoFromColumnType derives the column metadata of a database/sql column.
// UDT columns are recognized by their type name (GEOGRAPHY, GEOMETRY, HIERARCHYID, or
// a driver-reported UDT name); when the driver reports no type name the column type is
// inferred from its Go scan type.
func ColumnInfoFromColumnType(registry *mssqlconv.Registry, col ColumnType) types.ColumnInfo {
	typeName := strings.ToUpper(strings.TrimSpace(col.DatabaseTypeName()))
	info := types.ColumnInfo{
		Name:     util.RefString(col.Name()),
		Nullable: true,
	}
	if nullable, ok := col.Nullable(); ok {
		info.Nullable = nullable
	}

	if subtype, ok := types.ParseUDTSubtype(typeName); ok {
		info.Type = types.SQLSSUDT
		info.UDTSubtype = util.Ref(subtype)
		info.InternalSize = -1
		return info
	}

	nameInfo, ok := typeNames[typeName]
	if !ok {
		info.Type = codeFromScanType(registry, col.ScanType())
		mssqlconv.LogDebugf("column '%s' has type name '%s', inferred %s from scan type %v", col.Name(), typeName, info.Type.Name(), col.ScanType())
		if length, ok := col.Length(); ok && length < maxLengthThreshold {
			info.DisplaySize, info.InternalSize, info.Precision = length, length, length
		} else {
			info.InternalSize = -1
		}
		return info
	}

	info.Type = nameInfo.code
	length, hasLength := col.Length()
	precision, scale, hasDecimalSize := col.DecimalSize()

	switch {
	case nameInfo.code == types.SQLSSXML || nameInfo.code == types.SQLSSUDT:
		// xml and UDT columns are unbounded whatever length the driver reports
		info.InternalSize = -1
	case nameInfo.maxCode != 0 && (!hasLength || length >= maxLengthThreshold):
		// (MAX) and legacy LOB columns have no bounded size
		info.Type = nameInfo.maxCode
		info.InternalSize = -1
	case nameInfo.charWidth > 0:
		if hasLength {
			info.DisplaySize = length
			info.Precision = length
			info.InternalSize = length * nameInfo.charWidth
		}
	case nameInfo.timeBase > 0:
		if hasDecimalSize {
			info.Scale = scale
		}
		info.Precision = nameInfo.timeBase
		if info.Scale > 0 {
			info.Precision += info.Scale + 1
		}
		info.DisplaySize = info.Precision
		info.InternalSize = nameInfo.internalSize
	case nameInfo.columnSize == 0:
		// decimal/numeric
		if hasDecimalSize {
			info.Precision, info.Scale = precision, scale
		}
		info.DisplaySize = info.Precision
		info.InternalSize = info.Precision + 2
	default:
		info.Precision = nameInfo.columnSize
		info.DisplaySize = nameInfo.columnSize
		info.InternalSize = nameInfo.internalSize
		info.Scale = nameInfo.scale
	}
	return info
}

// codeFromScanType picks a SQL type for a Go scan type through the registry's inverse mapping.
func codeFromScanType(registry *mssqlconv.Registry, scanType reflect.Type) types.SQLType {
	if scanType == nil {
		return types.SQLUnknownType
	}
	if scanType.Kind() == reflect.Ptr {
		scanType = scanType.Elem()
	}
	// drivers without ColumnTypeScanType report interface{}
	if scanType.Kind() == reflect.Interface {
		return types.SQLUnknownType
	}
	codes := registry.CodesFor(scanType)
	for _, preferred := range scanTypePreference {
		for _, code := range codes {
			if code == preferred {
				return code
			}
		}
	}
	if len(codes) > 0 {
		return codes[0]
	}
	return types.SQLUnknownType
}

// MetadataFromColumnTypes derives result set metadata for columns in driver order.
func MetadataFromColumnTypes(registry *mssqlconv.Registry, columns []ColumnType) *types.ResultSetMetadata {
	metadata := &types.ResultSetMetadata{
		ColumnInfo: make([]types.ColumnInfo, len(columns)),
	}
	for i, col := range columns {
		metadata.ColumnInfo[i] = ColumnInfoFromColumnType(registry, col)
	}
	return metadata
}
