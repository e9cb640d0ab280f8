// Package all registers every storage backend with the storage factory.
// Import it for side effects from binaries that select a backend at runtime.
package all

import (
	_ "flightdb/internal/storage/mssql"
	_ "flightdb/internal/storage/mysql"
	_ "flightdb/internal/storage/postgres"
	_ "flightdb/internal/storage/sqlite"
)
