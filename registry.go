package mssqlconv

import (
	"math/big"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/kent-id/mssqlconv/types"
)

// Geography holds a SQL Server geography value in its native serialization format.
type Geography []byte

// Geometry holds a SQL Server geometry value in its native serialization format.
type Geometry []byte

// HierarchyID holds a SQL Server hierarchyid value in its native binary format.
type HierarchyID []byte

// Unknown is the host type of columns whose SQL type the registry does not recognize.
type Unknown struct{}

var (
	typeString      = reflect.TypeOf("")
	typeInt64       = reflect.TypeOf(int64(0))
	typeFloat64     = reflect.TypeOf(float64(0))
	typeBool        = reflect.TypeOf(false)
	typeBytes       = reflect.TypeOf([]byte(nil))
	typeDecimal     = reflect.TypeOf((*big.Rat)(nil))
	typeDate        = reflect.TypeOf(civil.Date{})
	typeTime        = reflect.TypeOf(civil.Time{})
	typeTimestamp   = reflect.TypeOf(time.Time{})
	typeGUID        = reflect.TypeOf(uuid.UUID{})
	typeVariant     = reflect.TypeOf((*interface{})(nil)).Elem()
	typeGeography   = reflect.TypeOf(Geography(nil))
	typeGeometry    = reflect.TypeOf(Geometry(nil))
	typeHierarchyID = reflect.TypeOf(HierarchyID(nil))
	typeUnknown     = reflect.TypeOf(Unknown{})
)

// Registry maps native SQL type codes to Go host types. A Registry is never
// modified after construction and may be shared by any number of goroutines.
type Registry struct {
	scalars map[types.SQLType]reflect.Type
	udts    map[types.UDTSubtype]reflect.Type
	inverse map[reflect.Type][]types.SQLType
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry builds an independent registry holding the SQL Server type mapping.
func NewRegistry() *Registry {
	r := &Registry{
		scalars: map[types.SQLType]reflect.Type{
			types.SQLChar:          typeString,
			types.SQLVarChar:       typeString,
			types.SQLLongVarChar:   typeString,
			types.SQLWChar:         typeString,
			types.SQLWVarChar:      typeString,
			types.SQLWLongVarChar:  typeString,
			types.SQLSSXML:         typeString,
			types.SQLNumeric:       typeDecimal,
			types.SQLDecimal:       typeDecimal,
			types.SQLInteger:       typeInt64,
			types.SQLSmallInt:      typeInt64,
			types.SQLTinyInt:       typeInt64,
			types.SQLBigInt:        typeInt64,
			types.SQLFloat:         typeFloat64,
			types.SQLReal:          typeFloat64,
			types.SQLDouble:        typeFloat64,
			types.SQLBit:           typeBool,
			types.SQLBinary:        typeBytes,
			types.SQLVarBinary:     typeBytes,
			types.SQLLongVarBinary: typeBytes,
			types.SQLDateTime:      typeDate,
			types.SQLTypeDate:      typeDate,
			types.SQLTime:          typeTime,
			types.SQLTypeTime:      typeTime,
			types.SQLSSTime2:       typeTime,
			types.SQLTimestamp:     typeTimestamp,
			types.SQLTypeTimestamp: typeTimestamp,
			// datetimeoffset keeps its offset in time.Time's location
			types.SQLSSTimestampOffset: typeTimestamp,
			types.SQLGUID:              typeGUID,
			types.SQLSSVariant:         typeVariant,
			// generic UDT without a known subtype
			types.SQLSSUDT: typeBytes,
		},
		udts: map[types.UDTSubtype]reflect.Type{
			types.UDTGeography:   typeGeography,
			types.UDTGeometry:    typeGeometry,
			types.UDTHierarchyID: typeHierarchyID,
		},
	}

	r.inverse = make(map[reflect.Type][]types.SQLType)
	for code, hostType := range r.scalars {
		r.inverse[hostType] = append(r.inverse[hostType], code)
	}
	for _, hostType := range r.udts {
		r.inverse[hostType] = append(r.inverse[hostType], types.SQLSSUDT)
	}
	for _, codes := range r.inverse {
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	}
	return r
}

// Resolve returns the host type for code. subtype is only consulted for SQLSSUDT
// columns; a nil or unrecognized subtype resolves to []byte. Codes the registry
// does not know resolve to Unknown.
func (r *Registry) Resolve(code types.SQLType, subtype *types.UDTSubtype) reflect.Type {
	if code == types.SQLSSUDT && subtype != nil {
		if hostType, ok := r.udts[*subtype]; ok {
			return hostType
		}
	}
	if hostType, ok := r.scalars[code]; ok {
		return hostType
	}
	return typeUnknown
}

// Recognizes reports whether code has a mapping other than Unknown.
func (r *Registry) Recognizes(code types.SQLType) bool {
	_, ok := r.scalars[code]
	return ok
}

// CodesFor returns the SQL type codes resolving to hostType, in ascending order.
func (r *Registry) CodesFor(hostType reflect.Type) []types.SQLType {
	codes := r.inverse[hostType]
	out := make([]types.SQLType, len(codes))
	copy(out, codes)
	return out
}

// Describe creates a descriptor for code bound to this registry.
func (r *Registry) Describe(code types.SQLType, subtype *types.UDTSubtype) TypeDescriptor {
	d := TypeDescriptor{code: code, registry: r}
	if code == types.SQLSSUDT && subtype != nil {
		d.subtype = *subtype
	}
	return d
}
