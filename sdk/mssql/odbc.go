//go:build odbc

package mssql

// Build with -tags odbc to register the "odbc" driver, e.g. with
// DSN "Driver={ODBC Driver 18 for SQL Server};Server=localhost;UID=sa;PWD=...".
import _ "github.com/alexbrainman/odbc"
