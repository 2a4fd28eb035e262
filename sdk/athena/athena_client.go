package athena

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/kent-id/mssqlconv"
	"github.com/kent-id/mssqlconv/types"
	"github.com/kent-id/mssqlconv/util"
)

const (
	maxAllowedPageSize = 1000 // max allowed by athena
)

// athenaAPI is the subset of *athena.Client used here.
type athenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type athenaClient struct {
	api          athenaAPI
	registry     *mssqlconv.Registry
	workgroup    string
	catalog      string
	database     string
	waitInterval time.Duration
	maxPageSize  int32
}

// AthenaClient runs queries on AWS Athena and describes or binds the results like a SQL Server cursor.
// Underlying AWS client from aws-sdk-go-v2 is used.
type AthenaClient interface {
	Describe(ctx context.Context, sqlQuery string) (mssqlconv.Description, error)
	GetQueryResults(ctx context.Context, sqlQuery string, dest interface{}) error
	GetQueryResultsIntoChannel(ctx context.Context, sqlQuery string, dest interface{}) error
}

// NewClient constructs new AthenaClient using specified aws-sdk-go-v2/aws/config, workgroup, database name, and catalog name in Athena
func NewClient(ctx context.Context, awsConfig aws.Config, workgroup, database, catalog string) AthenaClient {
	mssqlconv.LogInfof("creating athena client with workgroup: %s, database: %s, catalog: %s, pageSize: %d, region: %s", workgroup, database, catalog, maxAllowedPageSize, awsConfig.Region)
	return newClient(athena.NewFromConfig(awsConfig), workgroup, database, catalog)
}

func newClient(api athenaAPI, workgroup, database, catalog string) *athenaClient {
	return &athenaClient{
		api:          api,
		registry:     mssqlconv.DefaultRegistry(),
		workgroup:    workgroup,
		catalog:      catalog,
		database:     database,
		waitInterval: 1 * time.Second,
		maxPageSize:  maxAllowedPageSize,
	}
}

// Describe runs sqlQuery and returns the description of its result set. Only the first page is fetched.
func (c *athenaClient) Describe(ctx context.Context, sqlQuery string) (mssqlconv.Description, error) {
	queryExecutionID, err := c.runQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	output, err := c.api.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: queryExecutionID,
		MaxResults:       util.Ref(int32(1)),
	})
	if err != nil {
		return nil, err
	}
	return c.registry.BuildDescription(metadataFromAthena(output.ResultSet))
}

// GetQueryResults gets query results for the given SQL query and outputs into dest slice.
//
// Example:
// var output []myStruct
// err := client.GetQueryResults(ctx, "select id from my_table", &output)
func (c *athenaClient) GetQueryResults(ctx context.Context, sqlQuery string, dest interface{}) error {
	// 1. first initialize mapper which will also validate the dest model before we initiate query execution
	mapper, err := mssqlconv.NewMapperFor(dest)
	if err != nil {
		return err
	}
	mapper.WithRegistry(c.registry)

	// 2. start query and wait until it finishes
	queryExecutionID, err := c.runQuery(ctx, sqlQuery)
	if err != nil {
		return err
	}

	// 3. finally get the query results output page by page
	queryResultInput := athena.GetQueryResultsInput{
		QueryExecutionId: queryExecutionID,
		MaxResults:       &c.maxPageSize,
	}

	var nextToken *string
	var page uint = 1
	for {
		queryResultInput.NextToken = nextToken
		queryResultOutput, err := c.api.GetQueryResults(ctx, &queryResultInput)
		if err != nil {
			return err
		}

		resultSet := resultSetFromAthena(queryResultOutput.ResultSet)
		// skip header row if first page results
		if page == 1 && len(resultSet.Rows) > 0 {
			resultSet.Rows = resultSet.Rows[1:]
		}

		if err = mapper.AppendResultSet(ctx, resultSet); err != nil {
			return err
		}

		nextToken = queryResultOutput.NextToken
		if nextToken == nil {
			mssqlconv.LogInfof("finished fetching results from athena")
			break
		}

		page++
		mssqlconv.LogInfof("fetching next page %d results from athena using nextToken: %s", page, *nextToken)
	}

	return nil
}

// GetQueryResultsIntoChannel gets query results for the given SQL query into dest channel.
// dest is closed when all rows were sent or an error occurred.
func (c *athenaClient) GetQueryResultsIntoChannel(ctx context.Context, sqlQuery string, dest interface{}) error {
	destChannel := reflect.ValueOf(dest)
	if destChannel.Kind() != reflect.Chan {
		return fmt.Errorf("%w: dest should be a channel, got: %T", mssqlconv.ErrInvalidDestination, dest)
	}
	// closing a receive-only channel panics
	if destChannel.Type().ChanDir()&reflect.SendDir == 0 {
		return fmt.Errorf("%w: channel %s is receive-only", mssqlconv.ErrInvalidDestination, destChannel.Type())
	}
	defer destChannel.Close()

	return c.GetQueryResults(ctx, sqlQuery, dest)
}

// runQuery starts the query, waits for it and fails unless it succeeded.
func (c *athenaClient) runQuery(ctx context.Context, sqlQuery string) (*string, error) {
	queryExecutionID, err := c.startQueryAndGetExecutionID(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	status, err := c.waitQueryAndGetStatus(ctx, queryExecutionID)
	if err != nil {
		return nil, err
	}
	if status.State != athenatypes.QueryExecutionStateSucceeded {
		reason := util.SafeString(status.StateChangeReason)
		mssqlconv.LogErrorf("query %s ended with state: %s, reason: %s", util.SafeString(queryExecutionID), status.State, reason)
		return nil, fmt.Errorf("query execution failed with status: %s, reason: %s", status.State, reason)
	}
	return queryExecutionID, nil
}

// startQueryAndGetExecutionID starts query execution and get the execution id to identify the running query in Athena.
func (c *athenaClient) startQueryAndGetExecutionID(ctx context.Context, sqlQuery string) (*string, error) {
	startQueryExecInput := athena.StartQueryExecutionInput{
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: util.RefString(c.database),
			Catalog:  util.RefString(c.catalog),
		},
		WorkGroup:   util.RefString(c.workgroup),
		QueryString: util.RefString(sqlQuery),
	}

	startQueryExecOutput, err := c.api.StartQueryExecution(ctx, &startQueryExecInput)
	if err != nil {
		return nil, err
	}
	mssqlconv.LogInfof("started query with ExecutionID: %s", util.SafeString(startQueryExecOutput.QueryExecutionId))
	return startQueryExecOutput.QueryExecutionId, nil
}

// waitQueryAndGetStatus waits until query execution finishes and return QueryExecutionStatus.
func (c *athenaClient) waitQueryAndGetStatus(ctx context.Context, queryExecutionID *string) (*athenatypes.QueryExecutionStatus, error) {
	queryExecInput := athena.GetQueryExecutionInput{
		QueryExecutionId: queryExecutionID,
	}

	for {
		queryExecOutput, err := c.api.GetQueryExecution(ctx, &queryExecInput)
		if err != nil {
			return nil, err
		}
		status := queryExecOutput.QueryExecution.Status
		if status.State != athenatypes.QueryExecutionStateRunning && status.State != athenatypes.QueryExecutionStateQueued {
			mssqlconv.LogInfof("stopped query execution with state: %s", status.State)
			return status, nil
		}
		mssqlconv.LogDebugf("still awaiting query results with state: %s, waitInterval: %s", status.State, c.waitInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.waitInterval):
		}
	}
}

// athena type name to the closest SQL type
var athenaTypeCodes = map[string]types.SQLType{
	"boolean":   types.SQLBit,
	"tinyint":   types.SQLTinyInt,
	"smallint":  types.SQLSmallInt,
	"integer":   types.SQLInteger,
	"int":       types.SQLInteger,
	"bigint":    types.SQLBigInt,
	"double":    types.SQLDouble,
	"float":     types.SQLReal,
	"real":      types.SQLReal,
	"decimal":   types.SQLDecimal,
	"char":      types.SQLChar,
	"varchar":   types.SQLVarChar,
	"string":    types.SQLVarChar,
	"date":      types.SQLTypeDate,
	"time":      types.SQLTypeTime,
	"timestamp": types.SQLTypeTimestamp,
	"varbinary": types.SQLVarBinary,
}

// columnInfoFromAthena converts athena column metadata. Types without a SQL
// counterpart (arrays, maps, rows, json) are reported as unknown.
func columnInfoFromAthena(col athenatypes.ColumnInfo) types.ColumnInfo {
	typeName := strings.ToLower(util.SafeString(col.Type))
	code, ok := athenaTypeCodes[typeName]
	if !ok {
		code = types.SQLUnknownType
	}
	return types.ColumnInfo{
		Name:      col.Name,
		Type:      code,
		Precision: int64(col.Precision),
		Scale:     int64(col.Scale),
		// athena reports no octet lengths
		DisplaySize:  int64(col.Precision),
		InternalSize: -1,
		Nullable:     col.Nullable != athenatypes.ColumnNullableNotNull,
	}
}

func metadataFromAthena(resultSet *athenatypes.ResultSet) *types.ResultSetMetadata {
	if resultSet == nil || resultSet.ResultSetMetadata == nil {
		return nil
	}
	metadata := &types.ResultSetMetadata{
		ColumnInfo: make([]types.ColumnInfo, len(resultSet.ResultSetMetadata.ColumnInfo)),
	}
	for i, col := range resultSet.ResultSetMetadata.ColumnInfo {
		metadata.ColumnInfo[i] = columnInfoFromAthena(col)
	}
	return metadata
}

// resultSetFromAthena converts an athena result page. A datum without VarCharValue is NULL.
func resultSetFromAthena(resultSet *athenatypes.ResultSet) *types.ResultSet {
	out := &types.ResultSet{ResultSetMetadata: metadataFromAthena(resultSet)}
	if resultSet == nil {
		return out
	}
	out.Rows = make([]types.Row, len(resultSet.Rows))
	for i, row := range resultSet.Rows {
		data := make([]types.Datum, len(row.Data))
		for j, datum := range row.Data {
			if datum.VarCharValue != nil {
				data[j].Value = *datum.VarCharValue
			}
		}
		out.Rows[i] = types.Row{Data: data}
	}
	return out
}
