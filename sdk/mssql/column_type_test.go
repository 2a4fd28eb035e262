package mssql

import (
	"reflect"
	"time"

	"github.com/kent-id/mssqlconv"
	"github.com/kent-id/mssqlconv/types"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

type mockColumn struct {
	name        string
	typeName    string
	length      int64
	hasLength   bool
	precision   int64
	scale       int64
	hasDecimal  bool
	scanType    reflect.Type
	nullable    bool
	hasNullable bool
}

func (c mockColumn) Name() string             { return c.name }
func (c mockColumn) Length() (int64, bool)    { return c.length, c.hasLength }
func (c mockColumn) ScanType() reflect.Type   { return c.scanType }
func (c mockColumn) Nullable() (bool, bool)   { return c.nullable, c.hasNullable }
func (c mockColumn) DatabaseTypeName() string { return c.typeName }
func (c mockColumn) DecimalSize() (int64, int64, bool) {
	return c.precision, c.scale, c.hasDecimal
}

var _ = Describe("ColumnType", func() {
	registry := mssqlconv.DefaultRegistry()

	table.DescribeTable("maps SQL Server type names",
		func(col mockColumn, expected types.ColumnInfo) {
			col.name = "c"
			info := ColumnInfoFromColumnType(registry, col)
			Expect(*info.Name).To(Equal("c"))
			Expect(info.Type).To(Equal(expected.Type))
			Expect(info.DisplaySize).To(Equal(expected.DisplaySize))
			Expect(info.InternalSize).To(Equal(expected.InternalSize))
			Expect(info.Precision).To(Equal(expected.Precision))
			Expect(info.Scale).To(Equal(expected.Scale))
		},
		table.Entry("int", mockColumn{typeName: "INT"},
			types.ColumnInfo{Type: types.SQLInteger, DisplaySize: 10, InternalSize: 4, Precision: 10}),
		table.Entry("bigint", mockColumn{typeName: "BIGINT"},
			types.ColumnInfo{Type: types.SQLBigInt, DisplaySize: 19, InternalSize: 8, Precision: 19}),
		table.Entry("bit", mockColumn{typeName: "BIT"},
			types.ColumnInfo{Type: types.SQLBit, DisplaySize: 1, InternalSize: 1, Precision: 1}),
		table.Entry("money", mockColumn{typeName: "MONEY"},
			types.ColumnInfo{Type: types.SQLDecimal, DisplaySize: 19, InternalSize: 8, Precision: 19, Scale: 4}),
		table.Entry("decimal(10,2)", mockColumn{typeName: "DECIMAL", precision: 10, scale: 2, hasDecimal: true},
			types.ColumnInfo{Type: types.SQLDecimal, DisplaySize: 10, InternalSize: 12, Precision: 10, Scale: 2}),
		table.Entry("nvarchar(50)", mockColumn{typeName: "NVARCHAR", length: 50, hasLength: true},
			types.ColumnInfo{Type: types.SQLWVarChar, DisplaySize: 50, InternalSize: 100, Precision: 50}),
		table.Entry("nvarchar(max)", mockColumn{typeName: "NVARCHAR", length: 1<<31 - 1, hasLength: true},
			types.ColumnInfo{Type: types.SQLWLongVarChar, InternalSize: -1}),
		table.Entry("varbinary(max)", mockColumn{typeName: "VARBINARY", length: 1<<31 - 1, hasLength: true},
			types.ColumnInfo{Type: types.SQLLongVarBinary, InternalSize: -1}),
		table.Entry("char(3)", mockColumn{typeName: "char", length: 3, hasLength: true},
			types.ColumnInfo{Type: types.SQLChar, DisplaySize: 3, InternalSize: 3, Precision: 3}),
		table.Entry("xml", mockColumn{typeName: "XML"},
			types.ColumnInfo{Type: types.SQLSSXML, InternalSize: -1}),
		table.Entry("date", mockColumn{typeName: "DATE"},
			types.ColumnInfo{Type: types.SQLTypeDate, DisplaySize: 10, InternalSize: 6, Precision: 10}),
		table.Entry("time(7)", mockColumn{typeName: "TIME", precision: 16, scale: 7, hasDecimal: true},
			types.ColumnInfo{Type: types.SQLSSTime2, DisplaySize: 16, InternalSize: 12, Precision: 16, Scale: 7}),
		table.Entry("datetime2(0)", mockColumn{typeName: "DATETIME2", hasDecimal: true},
			types.ColumnInfo{Type: types.SQLTypeTimestamp, DisplaySize: 19, InternalSize: 16, Precision: 19}),
		table.Entry("datetimeoffset(7)", mockColumn{typeName: "DATETIMEOFFSET", scale: 7, hasDecimal: true},
			types.ColumnInfo{Type: types.SQLSSTimestampOffset, DisplaySize: 34, InternalSize: 20, Precision: 34, Scale: 7}),
		table.Entry("uniqueidentifier", mockColumn{typeName: "UNIQUEIDENTIFIER"},
			types.ColumnInfo{Type: types.SQLGUID, DisplaySize: 36, InternalSize: 16, Precision: 36}),
	)

	table.DescribeTable("maps UDT type names to subtypes",
		func(typeName string, subtype types.UDTSubtype) {
			info := ColumnInfoFromColumnType(registry, mockColumn{name: "u", typeName: typeName})
			Expect(info.Type).To(Equal(types.SQLSSUDT))
			Expect(info.UDTSubtype).ToNot(BeNil())
			Expect(*info.UDTSubtype).To(Equal(subtype))
			Expect(info.InternalSize).To(Equal(int64(-1)))
		},
		table.Entry("geography", "GEOGRAPHY", types.UDTGeography),
		table.Entry("geometry", "geometry", types.UDTGeometry),
		table.Entry("hierarchyid", "HIERARCHYID", types.UDTHierarchyID),
	)

	It("keeps a UDT of unknown kind without a subtype", func() {
		info := ColumnInfoFromColumnType(registry, mockColumn{name: "u", typeName: "UDT"})
		Expect(info.Type).To(Equal(types.SQLSSUDT))
		Expect(info.UDTSubtype).To(BeNil())
		Expect(info.InternalSize).To(Equal(int64(-1)))
	})

	It("reports xml and UDT columns as unbounded even with a driver length", func() {
		info := ColumnInfoFromColumnType(registry, mockColumn{name: "x", typeName: "XML", length: 4000, hasLength: true})
		Expect(info.Type).To(Equal(types.SQLSSXML))
		Expect(info.InternalSize).To(Equal(int64(-1)))
		Expect(info.Precision).To(BeZero())

		info = ColumnInfoFromColumnType(registry, mockColumn{name: "u", typeName: "UDT", length: 892, hasLength: true})
		Expect(info.Type).To(Equal(types.SQLSSUDT))
		Expect(info.InternalSize).To(Equal(int64(-1)))
		Expect(info.DisplaySize).To(BeZero())
	})

	It("reads nullability and defaults to nullable", func() {
		info := ColumnInfoFromColumnType(registry, mockColumn{name: "n", typeName: "INT", hasNullable: true})
		Expect(info.Nullable).To(BeFalse())
		info = ColumnInfoFromColumnType(registry, mockColumn{name: "n", typeName: "INT"})
		Expect(info.Nullable).To(BeTrue())
	})

	Context("unknown type names", func() {
		It("infers the type from the scan type", func() {
			info := ColumnInfoFromColumnType(registry, mockColumn{name: "x", typeName: "", scanType: reflect.TypeOf(int64(0))})
			Expect(info.Type).To(Equal(types.SQLBigInt))
			info = ColumnInfoFromColumnType(registry, mockColumn{name: "x", typeName: "", scanType: reflect.TypeOf(time.Time{})})
			Expect(info.Type).To(Equal(types.SQLTypeTimestamp))
			info = ColumnInfoFromColumnType(registry, mockColumn{name: "x", typeName: "", scanType: reflect.TypeOf(new(string))})
			Expect(info.Type).To(Equal(types.SQLWVarChar))
		})

		It("falls back to unknown when nothing is reported", func() {
			info := ColumnInfoFromColumnType(registry, mockColumn{name: "x", typeName: "SOMETHING"})
			Expect(info.Type).To(Equal(types.SQLUnknownType))
			Expect(info.InternalSize).To(Equal(int64(-1)))

			anyType := reflect.TypeOf((*interface{})(nil)).Elem()
			info = ColumnInfoFromColumnType(registry, mockColumn{name: "x", typeName: "SOMETHING", scanType: anyType})
			Expect(info.Type).To(Equal(types.SQLUnknownType))
		})
	})

	It("builds metadata in driver order", func() {
		metadata := MetadataFromColumnTypes(registry, []ColumnType{
			mockColumn{name: "id", typeName: "INT"},
			mockColumn{name: "geo", typeName: "GEOGRAPHY"},
		})
		Expect(metadata.ColumnInfo).To(HaveLen(2))
		Expect(*metadata.ColumnInfo[0].Name).To(Equal("id"))
		Expect(metadata.ColumnInfo[1].Type).To(Equal(types.SQLSSUDT))

		desc, err := registry.BuildDescription(metadata)
		Expect(err).ToNot(HaveOccurred())
		Expect(desc[1].TypeCode.Equal(reflect.TypeOf(mssqlconv.Geography(nil)))).To(BeTrue())
	})
})
