package migration

import "time"

// Migration is one SQL file read from the migration directory.
type Migration struct {
	Version     string
	Description string
	SQL         string
	Path        string
	Checksum    string
}

// Applied records one row of the schema_migrations table.
type Applied struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarizes the migration state of a database.
type Status struct {
	// Current is the highest applied version, or "" for a fresh database.
	Current string
	Applied []Applied
	Pending []Migration
}
