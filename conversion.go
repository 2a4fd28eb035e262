package mssqlconv

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04:05.999999999",
}

// ConvertValue converts a raw driver value to the host type of desc. A converter
// registered in converters for the column's SQL type runs first. SQL NULL converts to nil.
func ConvertValue(raw interface{}, desc TypeDescriptor, converters *OutputConverters) (interface{}, error) {
	raw, err := applyConverter(raw, desc, converters)
	if err != nil {
		return nil, err
	}
	return castColumnValue(raw, desc, reflect.Invalid)
}

func applyConverter(raw interface{}, desc TypeDescriptor, converters *OutputConverters) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	fn, ok := converters.Get(desc)
	if !ok {
		return raw, nil
	}
	converted, err := fn(raw)
	if err != nil {
		return nil, fmt.Errorf("output converter for %s: %w", desc, err)
	}
	return converted, nil
}

// castColumnValue converts raw to the host type of desc, returning a pointer to the
// value when destKind is reflect.Ptr. nil is returned as is.
func castColumnValue(raw interface{}, desc TypeDescriptor, destKind reflect.Kind) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}

	hostType := desc.HostType()
	var v interface{}
	var err error

	switch hostType {
	case typeString:
		v = toString(raw)
	case typeInt64:
		v, err = toInt64(raw)
	case typeFloat64:
		v, err = toFloat64(raw)
	case typeBool:
		v, err = toBool(raw)
	case typeDecimal:
		v, err = toDecimal(raw)
	case typeBytes:
		v, err = toBytes(raw)
	case typeGeography:
		var b []byte
		b, err = toBytes(raw)
		v = Geography(b)
	case typeGeometry:
		var b []byte
		b, err = toBytes(raw)
		v = Geometry(b)
	case typeHierarchyID:
		var b []byte
		b, err = toBytes(raw)
		v = HierarchyID(b)
	case typeDate:
		v, err = toDate(raw)
	case typeTime:
		v, err = toTime(raw)
	case typeTimestamp:
		v, err = toTimestamp(raw)
	case typeGUID:
		v, err = toGUID(raw)
	case typeVariant:
		return raw, nil
	default:
		LogWarnf("sql type %s not supported, passing the driver value through: if this is intended consider doing conversion in SQL to be explicit", desc)
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot convert %T to %s for %s: %w", raw, hostType, desc, err)
	}

	// pointer host types already fit pointer fields
	if destKind == reflect.Ptr && hostType.Kind() != reflect.Ptr {
		p := reflect.New(hostType)
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}
	return v, nil
}

func toString(raw interface{}) string {
	switch x := raw.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func toInt64(raw interface{}) (int64, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string, []byte:
		return strconv.ParseInt(strings.TrimSpace(toString(x)), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported source type")
	}
}

func toFloat64(raw interface{}) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string, []byte:
		return strconv.ParseFloat(strings.TrimSpace(toString(x)), 64)
	default:
		return 0, fmt.Errorf("unsupported source type")
	}
}

func toBool(raw interface{}) (bool, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case string, []byte:
		return strconv.ParseBool(strings.TrimSpace(toString(x)))
	default:
		return false, fmt.Errorf("unsupported source type")
	}
}

// toDecimal always allocates, so no two values share a Rat.
func toDecimal(raw interface{}) (*big.Rat, error) {
	r := new(big.Rat)
	switch x := raw.(type) {
	case string, []byte:
		if _, ok := r.SetString(strings.TrimSpace(toString(x))); !ok {
			return nil, fmt.Errorf("invalid decimal literal %q", toString(x))
		}
	case int64:
		r.SetInt64(x)
	case float64:
		if r.SetFloat64(x) == nil {
			return nil, fmt.Errorf("non-finite decimal %v", x)
		}
	case *big.Rat:
		r.Set(x)
	case big.Rat:
		r.Set(&x)
	default:
		return nil, fmt.Errorf("unsupported source type")
	}
	return r, nil
}

func toBytes(raw interface{}) ([]byte, error) {
	switch x := raw.(type) {
	case []byte:
		b := make([]byte, len(x))
		copy(b, x)
		return b, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("unsupported source type")
	}
}

func toDate(raw interface{}) (civil.Date, error) {
	switch x := raw.(type) {
	case time.Time:
		return civil.DateOf(x), nil
	case string, []byte:
		s := strings.TrimSpace(toString(x))
		if len(s) > len("2006-01-02") {
			s = s[:len("2006-01-02")]
		}
		return civil.ParseDate(s)
	default:
		return civil.Date{}, fmt.Errorf("unsupported source type")
	}
}

func toTime(raw interface{}) (civil.Time, error) {
	switch x := raw.(type) {
	case time.Time:
		return civil.TimeOf(x), nil
	case string, []byte:
		return civil.ParseTime(strings.TrimSpace(toString(x)))
	default:
		return civil.Time{}, fmt.Errorf("unsupported source type")
	}
}

func toTimestamp(raw interface{}) (time.Time, error) {
	switch x := raw.(type) {
	case time.Time:
		return x, nil
	case string, []byte:
		s := strings.TrimSpace(toString(x))
		var err error
		for _, layout := range timestampLayouts {
			var t time.Time
			if t, err = time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, err
	default:
		return time.Time{}, fmt.Errorf("unsupported source type")
	}
}

// toGUID accepts the textual form or the 16 byte uniqueidentifier wire format,
// whose first three groups are little-endian.
func toGUID(raw interface{}) (uuid.UUID, error) {
	switch x := raw.(type) {
	case uuid.UUID:
		return x, nil
	case []byte:
		if len(x) == 16 {
			var u uuid.UUID
			copy(u[:], x)
			u[0], u[1], u[2], u[3] = u[3], u[2], u[1], u[0]
			u[4], u[5] = u[5], u[4]
			u[6], u[7] = u[7], u[6]
			return u, nil
		}
		return uuid.ParseBytes(x)
	case string:
		return uuid.Parse(strings.TrimSpace(x))
	default:
		return uuid.UUID{}, fmt.Errorf("unsupported source type")
	}
}
