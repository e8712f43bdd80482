package client

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsnHost(t *testing.T) {
	assert.Equal(t, "db:5432", dsnHost("postgres://orna:secret@db:5432/orna?sslmode=disable"))
	assert.Equal(t, "unknown", dsnHost("host=localhost user=orna"))
	assert.Equal(t, "unknown", dsnHost("::"))
}

// Сумма хранится как float8: значение из API читается обратно без округления
func TestInitMigrationStoresTotalValueAsFloat(t *testing.T) {
	raw, err := os.ReadFile("../migrations/000001_init.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	columns := regexp.MustCompile(`total_value\s+([A-Z ]+?)\s+NOT NULL`).FindAllStringSubmatch(sql, -1)
	require.Len(t, columns, 2)
	for _, c := range columns {
		assert.Equal(t, "DOUBLE PRECISION", c[1])
	}
	assert.NotContains(t, sql, "NUMERIC")
}
