package types

import (
	"strings"
)

// SQLType is a native ODBC SQL data type code as reported by SQLDescribeCol.
type SQLType int32

// SQL data types, including the SQL Server driver specific ones.
// See https://learn.microsoft.com/en-us/sql/relational-databases/native-client-odbc-date-time/data-type-support-for-odbc-date-and-time-improvements
const (
	SQLUnknownType   SQLType = 0
	SQLChar          SQLType = 1
	SQLNumeric       SQLType = 2
	SQLDecimal       SQLType = 3
	SQLInteger       SQLType = 4
	SQLSmallInt      SQLType = 5
	SQLFloat         SQLType = 6
	SQLReal          SQLType = 7
	SQLDouble        SQLType = 8
	SQLDateTime      SQLType = 9 // ODBC 2.x SQL_DATE
	SQLTime          SQLType = 10
	SQLTimestamp     SQLType = 11
	SQLVarChar       SQLType = 12
	SQLTypeDate      SQLType = 91
	SQLTypeTime      SQLType = 92
	SQLTypeTimestamp SQLType = 93
	SQLLongVarChar   SQLType = -1
	SQLBinary        SQLType = -2
	SQLVarBinary     SQLType = -3
	SQLLongVarBinary SQLType = -4
	SQLBigInt        SQLType = -5
	SQLTinyInt       SQLType = -6
	SQLBit           SQLType = -7
	SQLWChar         SQLType = -8
	SQLWVarChar      SQLType = -9
	SQLWLongVarChar  SQLType = -10
	SQLGUID          SQLType = -11

	SQLSSVariant         SQLType = -150
	SQLSSUDT             SQLType = -151
	SQLSSXML             SQLType = -152
	SQLSSTable           SQLType = -153
	SQLSSTime2           SQLType = -154
	SQLSSTimestampOffset SQLType = -155
)

var sqlTypeNames = map[SQLType]string{
	SQLUnknownType:       "SQL_UNKNOWN_TYPE",
	SQLChar:              "SQL_CHAR",
	SQLNumeric:           "SQL_NUMERIC",
	SQLDecimal:           "SQL_DECIMAL",
	SQLInteger:           "SQL_INTEGER",
	SQLSmallInt:          "SQL_SMALLINT",
	SQLFloat:             "SQL_FLOAT",
	SQLReal:              "SQL_REAL",
	SQLDouble:            "SQL_DOUBLE",
	SQLDateTime:          "SQL_DATETIME",
	SQLTime:              "SQL_TIME",
	SQLTimestamp:         "SQL_TIMESTAMP",
	SQLVarChar:           "SQL_VARCHAR",
	SQLTypeDate:          "SQL_TYPE_DATE",
	SQLTypeTime:          "SQL_TYPE_TIME",
	SQLTypeTimestamp:     "SQL_TYPE_TIMESTAMP",
	SQLLongVarChar:       "SQL_LONGVARCHAR",
	SQLBinary:            "SQL_BINARY",
	SQLVarBinary:         "SQL_VARBINARY",
	SQLLongVarBinary:     "SQL_LONGVARBINARY",
	SQLBigInt:            "SQL_BIGINT",
	SQLTinyInt:           "SQL_TINYINT",
	SQLBit:               "SQL_BIT",
	SQLWChar:             "SQL_WCHAR",
	SQLWVarChar:          "SQL_WVARCHAR",
	SQLWLongVarChar:      "SQL_WLONGVARCHAR",
	SQLGUID:              "SQL_GUID",
	SQLSSVariant:         "SQL_SS_VARIANT",
	SQLSSUDT:             "SQL_SS_UDT",
	SQLSSXML:             "SQL_SS_XML",
	SQLSSTable:           "SQL_SS_TABLE",
	SQLSSTime2:           "SQL_SS_TIME2",
	SQLSSTimestampOffset: "SQL_SS_TIMESTAMPOFFSET",
}

// Known reports whether t belongs to the driver's type enumeration.
func (t SQLType) Known() bool {
	_, ok := sqlTypeNames[t]
	return ok
}

// Name returns the ODBC symbol for t, SQL_UNKNOWN_TYPE for codes outside the enumeration.
func (t SQLType) Name() string {
	if name, ok := sqlTypeNames[t]; ok {
		return name
	}
	return sqlTypeNames[SQLUnknownType]
}

// UDTSubtype identifies which CLR user-defined type a SQLSSUDT column carries.
type UDTSubtype int32

const (
	UDTNone UDTSubtype = iota
	UDTGeography
	UDTGeometry
	UDTHierarchyID
)

var udtSubtypeNames = map[UDTSubtype]string{
	UDTNone:        "none",
	UDTGeography:   "geography",
	UDTGeometry:    "geometry",
	UDTHierarchyID: "hierarchyid",
}

// String returns the SQL Server type name of the subtype.
func (s UDTSubtype) String() string {
	if name, ok := udtSubtypeNames[s]; ok {
		return name
	}
	return udtSubtypeNames[UDTNone]
}

// ParseUDTSubtype resolves a UDT type name as reported by the server into a subtype.
// Accepts plain names ("geography"), schema qualified names ("sys.geography") and the
// CLR names ("Microsoft.SqlServer.Types.SqlGeography"), case-insensitively.
func ParseUDTSubtype(name string) (UDTSubtype, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(name, "[]")
	name = strings.TrimPrefix(name, "sql")

	switch name {
	case "geography":
		return UDTGeography, true
	case "geometry":
		return UDTGeometry, true
	case "hierarchyid":
		return UDTHierarchyID, true
	default:
		return UDTNone, false
	}
}
