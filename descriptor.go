package mssqlconv

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/kent-id/mssqlconv/types"
	"github.com/zeebo/xxh3"
)

// TypeDescriptor is the type_code of a column description. It wraps the native
// SQL type code and compares equal both to that code and to the Go host type the
// code resolves to:
//
//	d.Equal(4)                          // raw code
//	d.Equal(types.SQLInteger)           // raw code
//	d.Equal(reflect.TypeOf(int64(0)))   // host type
//
// The host type is derived from the registry on demand and never stored.
// The zero value describes SQL_UNKNOWN_TYPE.
type TypeDescriptor struct {
	code     types.SQLType
	subtype  types.UDTSubtype
	registry *Registry
}

// NewTypeDescriptor creates a descriptor for code using the default registry.
func NewTypeDescriptor(code types.SQLType) TypeDescriptor {
	return DefaultRegistry().Describe(code, nil)
}

// NewUDTDescriptor creates a descriptor for a UDT column of the given subtype.
func NewUDTDescriptor(code types.SQLType, subtype types.UDTSubtype) TypeDescriptor {
	return DefaultRegistry().Describe(code, &subtype)
}

// Code returns the wrapped SQL type code.
func (d TypeDescriptor) Code() types.SQLType {
	return d.code
}

// Int returns the raw SQL type code. This is the canonical integer form of d.
func (d TypeDescriptor) Int() int64 {
	return int64(d.code)
}

// Subtype returns the UDT subtype, UDTNone for non-UDT columns or unidentified UDTs.
func (d TypeDescriptor) Subtype() types.UDTSubtype {
	return d.subtype
}

// Name returns the ODBC symbol of the wrapped code.
func (d TypeDescriptor) Name() string {
	return d.code.Name()
}

// HostType returns the Go type values of this column convert to.
func (d TypeDescriptor) HostType() reflect.Type {
	var subtype *types.UDTSubtype
	if d.subtype != types.UDTNone {
		subtype = &d.subtype
	}
	return d.resolver().Resolve(d.code, subtype)
}

func (d TypeDescriptor) resolver() *Registry {
	if d.registry == nil {
		return DefaultRegistry()
	}
	return d.registry
}

// operandKind is the closed set of values a descriptor can be compared with.
type operandKind int

const (
	operandOther operandKind = iota
	operandRawCode
	operandHostType
	operandDescriptor
)

type operand struct {
	kind       operandKind
	code       int64
	hostType   reflect.Type
	descriptor TypeDescriptor
}

// classifyOperand tags v with its operandKind. Unsigned values beyond int64 and nil
// pointers classify as operandOther.
func classifyOperand(v interface{}) operand {
	switch x := v.(type) {
	case TypeDescriptor:
		return operand{kind: operandDescriptor, code: x.Int(), descriptor: x}
	case *TypeDescriptor:
		if x == nil {
			return operand{}
		}
		return operand{kind: operandDescriptor, code: x.Int(), descriptor: *x}
	case types.SQLType:
		return operand{kind: operandRawCode, code: int64(x)}
	case int:
		return operand{kind: operandRawCode, code: int64(x)}
	case int8:
		return operand{kind: operandRawCode, code: int64(x)}
	case int16:
		return operand{kind: operandRawCode, code: int64(x)}
	case int32:
		return operand{kind: operandRawCode, code: int64(x)}
	case int64:
		return operand{kind: operandRawCode, code: x}
	case uint:
		return rawUnsigned(uint64(x))
	case uint8:
		return rawUnsigned(uint64(x))
	case uint16:
		return rawUnsigned(uint64(x))
	case uint32:
		return rawUnsigned(uint64(x))
	case uint64:
		return rawUnsigned(x)
	case reflect.Type:
		if x == nil {
			return operand{}
		}
		return operand{kind: operandHostType, hostType: x}
	default:
		return operand{}
	}
}

func rawUnsigned(x uint64) operand {
	if x > uint64(1<<63-1) {
		return operand{}
	}
	return operand{kind: operandRawCode, code: int64(x)}
}

// Equal compares d with other:
//
//   - another TypeDescriptor (value or pointer): equal when the codes are equal.
//   - any Go integer or types.SQLType: equal when numerically equal to the code.
//   - a reflect.Type: equal when it is identical to d.HostType().
//   - anything else, including nil: not equal.
func (d TypeDescriptor) Equal(other interface{}) bool {
	op := classifyOperand(other)
	switch op.kind {
	case operandDescriptor, operandRawCode:
		return op.code == d.Int()
	case operandHostType:
		return op.hostType == d.HostType()
	default:
		return false
	}
}

// Equal reports whether a and b are equal under descriptor semantics regardless
// of operand order: Equal(reflect.TypeOf(int64(0)), d) == d.Equal(reflect.TypeOf(int64(0))).
// When neither side is a descriptor, codes compare numerically and host types by identity.
func Equal(a, b interface{}) bool {
	opA, opB := classifyOperand(a), classifyOperand(b)
	switch {
	case opA.kind == operandDescriptor:
		return opA.descriptor.Equal(b)
	case opB.kind == operandDescriptor:
		return opB.descriptor.Equal(a)
	case opA.kind == operandRawCode && opB.kind == operandRawCode:
		return opA.code == opB.code
	case opA.kind == operandHostType && opB.kind == operandHostType:
		return opA.hostType == opB.hostType
	default:
		return false
	}
}

// CodeOf returns the SQL type code held by v, which may be a descriptor or a raw code.
// Use it to normalize keys when descriptors and bare codes share a map or set.
func CodeOf(v interface{}) (types.SQLType, bool) {
	op := classifyOperand(v)
	switch op.kind {
	case operandDescriptor, operandRawCode:
		if op.code < -1<<31 || op.code > 1<<31-1 {
			return types.SQLUnknownType, false
		}
		return types.SQLType(op.code), true
	default:
		return types.SQLUnknownType, false
	}
}

// HashCode hashes a raw SQL type code.
func HashCode(code int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(code))
	return xxh3.Hash(buf[:])
}

// Hash returns HashCode(d.Int()), so descriptors hash like the bare code they equal.
func (d TypeDescriptor) Hash() uint64 {
	return HashCode(d.Int())
}

// Compare orders descriptors by code: -1 if d < other, 0 if equal, +1 otherwise.
func (d TypeDescriptor) Compare(other TypeDescriptor) int {
	return cmp.Compare(d.code, other.code)
}

// Less reports whether d orders before other.
func (d TypeDescriptor) Less(other TypeDescriptor) bool {
	return d.Compare(other) < 0
}

// SortDescriptors sorts descriptors in place by code.
func SortDescriptors(descriptors []TypeDescriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Less(descriptors[j])
	})
}

// String returns a diagnostic label such as "SQL_INTEGER(4)".
func (d TypeDescriptor) String() string {
	return fmt.Sprintf("%s(%d)", d.code.Name(), d.code)
}

// GoString includes the resolved host type, for %#v.
func (d TypeDescriptor) GoString() string {
	return fmt.Sprintf("mssqlconv.TypeDescriptor{%s -> %s}", d.String(), d.HostType())
}

// MarshalJSON encodes d as its bare integer code.
func (d TypeDescriptor) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(d.Int(), 10)), nil
}
