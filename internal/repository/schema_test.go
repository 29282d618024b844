package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Guards against drift between the column lists the repositories write and
// the initial migration's DDL. sqlmock never parses SQL, so a column missing
// from the schema only surfaces against a live database.
func TestInitMigrationCoversWrittenColumns(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)
	ddl := string(raw)

	tables := map[string][]string{
		"mood_entries": {
			"id", "student_id", "mood_level", "notes", "entry_date",
			"created_at", "updated_at",
		},
		"recommendations": {
			"id", "student_id", "faculty_id", "consultant_id",
			"recommendation_type", "status", "reason", "cooldown_until",
			"created_at", "updated_at",
		},
		"appointments": {
			"id", "student_id", "consultant_id", "recommendation_id",
			"appointment_date", "appointment_time", "status", "requested_by",
			"student_notes", "consultant_notes",
			"counter_proposal_date", "counter_proposal_time",
			"created_at", "updated_at",
		},
	}

	for table, columns := range tables {
		start := strings.Index(ddl, "CREATE TABLE "+table)
		require.GreaterOrEqual(t, start, 0, "missing CREATE TABLE %s", table)
		body := ddl[start:]
		body = body[:strings.Index(body, ";")]
		for _, column := range columns {
			assert.Contains(t, body, column, "%s.%s not defined", table, column)
		}
	}
}
