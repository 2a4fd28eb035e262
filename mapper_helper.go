package mssqlconv

import (
	"context"

	"github.com/kent-id/mssqlconv/types"
)

// ConvertResultSet converts src into dest.
// Useful for one-time conversion. For repeated use, consider creating DataMapper.
//
// Example:
//
//	var dest []MyModel
//	err := mssqlconv.ConvertResultSet(ctx, &dest, resultSet)
func ConvertResultSet(ctx context.Context, dest interface{}, src *types.ResultSet) (err error) {
	mapper, err := NewMapperFor(dest)
	if err == nil {
		err = mapper.AppendResultSet(ctx, src)
	}
	return
}
