package mssqlconv

import (
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/kent-id/mssqlconv/types"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	"github.com/onsi/gomega"
)

func subtypeRef(s types.UDTSubtype) *types.UDTSubtype {
	return &s
}

var _ = Describe("Registry", func() {
	var registry *Registry
	BeforeEach(func() {
		registry = NewRegistry()
	})

	table.DescribeTable("Resolve maps scalar codes",
		func(code types.SQLType, expected reflect.Type) {
			Expect(registry.Resolve(code, nil)).To(gomega.Equal(expected))
			Expect(registry.Recognizes(code)).To(BeTrue())
		},
		table.Entry("varchar", types.SQLVarChar, reflect.TypeOf("")),
		table.Entry("nvarchar(max)", types.SQLWLongVarChar, reflect.TypeOf("")),
		table.Entry("xml", types.SQLSSXML, reflect.TypeOf("")),
		table.Entry("int", types.SQLInteger, reflect.TypeOf(int64(0))),
		table.Entry("tinyint", types.SQLTinyInt, reflect.TypeOf(int64(0))),
		table.Entry("bigint", types.SQLBigInt, reflect.TypeOf(int64(0))),
		table.Entry("float", types.SQLDouble, reflect.TypeOf(float64(0))),
		table.Entry("bit", types.SQLBit, reflect.TypeOf(false)),
		table.Entry("decimal", types.SQLDecimal, reflect.TypeOf((*big.Rat)(nil))),
		table.Entry("varbinary", types.SQLVarBinary, reflect.TypeOf([]byte(nil))),
		table.Entry("date", types.SQLTypeDate, reflect.TypeOf(civil.Date{})),
		table.Entry("time", types.SQLSSTime2, reflect.TypeOf(civil.Time{})),
		table.Entry("datetime2", types.SQLTypeTimestamp, reflect.TypeOf(time.Time{})),
		table.Entry("datetimeoffset", types.SQLSSTimestampOffset, reflect.TypeOf(time.Time{})),
		table.Entry("uniqueidentifier", types.SQLGUID, reflect.TypeOf(uuid.UUID{})),
		table.Entry("sql_variant", types.SQLSSVariant, reflect.TypeOf((*interface{})(nil)).Elem()),
	)

	It("is deterministic across calls", func() {
		for code := range sqlTypeCodes() {
			Expect(registry.Resolve(code, nil)).To(gomega.Equal(registry.Resolve(code, nil)))
			Expect(registry.Resolve(code, nil)).To(gomega.Equal(NewRegistry().Resolve(code, nil)))
		}
	})

	It("resolves codes outside the enumeration to Unknown", func() {
		Expect(registry.Resolve(99999, nil)).To(gomega.Equal(reflect.TypeOf(Unknown{})))
		Expect(registry.Resolve(types.SQLSSTable, nil)).To(gomega.Equal(reflect.TypeOf(Unknown{})))
		Expect(registry.Recognizes(99999)).To(BeFalse())
	})

	Context("UDT columns", func() {
		It("resolves recognized subtypes to their opaque types", func() {
			Expect(registry.Resolve(types.SQLSSUDT, subtypeRef(types.UDTGeography))).To(gomega.Equal(reflect.TypeOf(Geography(nil))))
			Expect(registry.Resolve(types.SQLSSUDT, subtypeRef(types.UDTGeometry))).To(gomega.Equal(reflect.TypeOf(Geometry(nil))))
			Expect(registry.Resolve(types.SQLSSUDT, subtypeRef(types.UDTHierarchyID))).To(gomega.Equal(reflect.TypeOf(HierarchyID(nil))))
		})

		It("falls back to []byte without a subtype", func() {
			Expect(registry.Resolve(types.SQLSSUDT, nil)).To(gomega.Equal(reflect.TypeOf([]byte(nil))))
		})

		It("falls back to []byte with an unrecognized subtype", func() {
			Expect(registry.Resolve(types.SQLSSUDT, subtypeRef(types.UDTNone))).To(gomega.Equal(reflect.TypeOf([]byte(nil))))
			Expect(registry.Resolve(types.SQLSSUDT, subtypeRef(77))).To(gomega.Equal(reflect.TypeOf([]byte(nil))))
		})

		It("ignores subtypes on non-UDT codes", func() {
			Expect(registry.Resolve(types.SQLInteger, subtypeRef(types.UDTGeography))).To(gomega.Equal(reflect.TypeOf(int64(0))))
		})
	})

	Context("CodesFor", func() {
		It("returns every code mapped to the host type in ascending order", func() {
			Expect(registry.CodesFor(reflect.TypeOf(int64(0)))).To(gomega.Equal([]types.SQLType{
				types.SQLTinyInt, types.SQLBigInt, types.SQLInteger, types.SQLSmallInt,
			}))
			Expect(registry.CodesFor(reflect.TypeOf(Geography(nil)))).To(gomega.Equal([]types.SQLType{types.SQLSSUDT}))
		})

		It("returns a copy", func() {
			codes := registry.CodesFor(reflect.TypeOf(""))
			codes[0] = 12345
			Expect(registry.CodesFor(reflect.TypeOf(""))[0]).ToNot(gomega.Equal(types.SQLType(12345)))
		})

		It("returns nothing for unmapped host types", func() {
			Expect(registry.CodesFor(reflect.TypeOf(struct{ A int }{}))).To(BeEmpty())
		})
	})

	Context("DefaultRegistry", func() {
		It("returns the same instance from concurrent callers", func() {
			var wg sync.WaitGroup
			results := make([]*Registry, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = DefaultRegistry()
				}(i)
			}
			wg.Wait()
			for _, r := range results {
				Expect(r).To(BeIdenticalTo(results[0]))
			}
		})
	})
})

// sqlTypeCodes lists every code the registry maps.
func sqlTypeCodes() map[types.SQLType]struct{} {
	codes := make(map[types.SQLType]struct{})
	for code := range DefaultRegistry().scalars {
		codes[code] = struct{}{}
	}
	return codes
}
