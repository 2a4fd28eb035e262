package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	_ "github.com/denisenkom/go-mssqldb" // registers "sqlserver" and "mssql"

	"github.com/kent-id/mssqlconv"
	"github.com/kent-id/mssqlconv/types"
)

type client struct {
	db         *sql.DB
	cfg        Config
	registry   *mssqlconv.Registry
	converters *mssqlconv.OutputConverters
}

// Client is a SQL Server client producing cursor descriptions and strongly-typed model binding.
// Connections are handled by database/sql.
type Client interface {
	Describe(ctx context.Context, sqlQuery string, args ...interface{}) (mssqlconv.Description, error)
	GetQueryResults(ctx context.Context, sqlQuery string, dest interface{}, args ...interface{}) error
	GetQueryResultsIntoChannel(ctx context.Context, sqlQuery string, dest interface{}, args ...interface{}) error
	Converters() *mssqlconv.OutputConverters
	Close() error
}

// resultRows is the part of *sql.Rows the client reads.
type resultRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// NewClient opens a connection pool for cfg and verifies it is reachable.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := mssqlconv.ParseLogLevel(cfg.LogLevel)
	mssqlconv.SetLogLevel(level)

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	mssqlconv.LogInfof("connected with driver: %s, pageSize: %d, queryTimeout: %s", cfg.Driver, cfg.PageSize, cfg.QueryTimeout)

	return newClient(db, cfg), nil
}

func newClient(db *sql.DB, cfg Config) *client {
	return &client{
		db:         db,
		cfg:        cfg,
		registry:   mssqlconv.DefaultRegistry(),
		converters: mssqlconv.NewOutputConverters(),
	}
}

// Converters returns the output converters applied by GetQueryResults on this client.
func (c *client) Converters() *mssqlconv.OutputConverters {
	return c.converters
}

// Close closes the underlying connection pool.
func (c *client) Close() error {
	return c.db.Close()
}

// Describe executes sqlQuery and returns the description of its first result set.
// A statement without a result set yields a nil description.
func (c *client) Describe(ctx context.Context, sqlQuery string, args ...interface{}) (mssqlconv.Description, error) {
	ctx, cancel := c.queryContext(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := columnTypes(rows)
	if err != nil {
		return nil, err
	}
	return c.registry.BuildDescription(MetadataFromColumnTypes(c.registry, columns))
}

// GetQueryResults gets query results for the given SQL query and outputs into dest slice.
//
// Example:
// var output []myStruct
// err := client.GetQueryResults(ctx, "select id from my_table where id > @p1", &output, 10)
func (c *client) GetQueryResults(ctx context.Context, sqlQuery string, dest interface{}, args ...interface{}) error {
	// 1. first initialize mapper which will also validate the dest model before we run the query
	mapper, err := mssqlconv.NewMapperFor(dest)
	if err != nil {
		return err
	}
	mapper.WithRegistry(c.registry).WithConverters(c.converters)

	ctx, cancel := c.queryContext(ctx)
	defer cancel()

	// 2. run query
	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	// 3. describe and page through results
	columns, err := columnTypes(rows)
	if err != nil {
		return err
	}
	return c.readResultSet(ctx, rows, columns, mapper)
}

// GetQueryResultsIntoChannel gets query results for the given SQL query into dest channel.
// dest is closed when all rows were sent or an error occurred.
func (c *client) GetQueryResultsIntoChannel(ctx context.Context, sqlQuery string, dest interface{}, args ...interface{}) error {
	destChannel := reflect.ValueOf(dest)
	if destChannel.Kind() != reflect.Chan {
		return fmt.Errorf("%w: dest should be a channel, got: %T", mssqlconv.ErrInvalidDestination, dest)
	}
	// closing a receive-only channel panics
	if destChannel.Type().ChanDir()&reflect.SendDir == 0 {
		return fmt.Errorf("%w: channel %s is receive-only", mssqlconv.ErrInvalidDestination, destChannel.Type())
	}
	defer destChannel.Close()

	return c.GetQueryResults(ctx, sqlQuery, dest, args...)
}

// readResultSet scans rows page by page and hands each page to mapper.
func (c *client) readResultSet(ctx context.Context, rows resultRows, columns []ColumnType, mapper mssqlconv.DataMapper) error {
	metadata := MetadataFromColumnTypes(c.registry, columns)
	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	page := &types.ResultSet{ResultSetMetadata: metadata}
	var pageNumber uint = 1
	flush := func() error {
		if err := mapper.AppendResultSet(ctx, page); err != nil {
			mssqlconv.LogErrorf("failed to map page %d: %s", pageNumber, err)
			return err
		}
		mssqlconv.LogDebugf("mapped page %d with %d rows", pageNumber, len(page.Rows))
		page.Rows = page.Rows[:0]
		pageNumber++
		return nil
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		row := types.Row{Data: make([]types.Datum, len(values))}
		for i, v := range values {
			row.Data[i] = types.Datum{Value: v}
		}
		page.Rows = append(page.Rows, row)

		if len(page.Rows) >= pageSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		mssqlconv.LogErrorf("row iteration stopped after page %d: %s", pageNumber, err)
		return fmt.Errorf("error reading rows: %w", err)
	}

	// the last page also validates the schema of empty results
	if len(page.Rows) > 0 || pageNumber == 1 {
		if err := flush(); err != nil {
			return err
		}
	}
	mssqlconv.LogInfof("finished fetching results, pages: %d", pageNumber-1)
	return nil
}

func (c *client) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func columnTypes(rows *sql.Rows) ([]ColumnType, error) {
	sqlColumns, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}
	columns := make([]ColumnType, len(sqlColumns))
	for i, col := range sqlColumns {
		columns[i] = col
	}
	return columns, nil
}
