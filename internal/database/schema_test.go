package database

import (
	"io/fs"
	"net/url"
	"strings"
	"testing"

	"product-catalog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
	require.NoError(t, err, "migration %s must be embedded", name)
	return string(content)
}

func TestMigrationFilesAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"00001_create_categories_table.sql",
		"00002_create_products_table.sql",
	}, names)
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)

	for _, e := range entries {
		content := readMigration(t, e.Name())

		up := strings.Index(content, "-- +goose Up")
		down := strings.Index(content, "-- +goose Down")
		assert.GreaterOrEqual(t, up, 0, "%s has no Up section", e.Name())
		assert.Greater(t, down, up, "%s must declare Down after Up", e.Name())
		assert.Equal(t,
			strings.Count(content, "-- +goose StatementBegin"),
			strings.Count(content, "-- +goose StatementEnd"),
			"%s has unbalanced statement markers", e.Name())
	}
}

func TestCategoriesTableHasRequiredColumns(t *testing.T) {
	content := readMigration(t, "00001_create_categories_table.sql")

	for _, fragment := range []string{
		"CREATE TABLE IF NOT EXISTS categories",
		"id UUID PRIMARY KEY DEFAULT gen_random_uuid()",
		"name VARCHAR(100) NOT NULL",
		"DROP TABLE IF EXISTS categories",
	} {
		assert.Contains(t, content, fragment)
	}
}

func TestProductsTableStoresDocuments(t *testing.T) {
	content := readMigration(t, "00002_create_products_table.sql")

	for _, fragment := range []string{
		"CREATE TABLE IF NOT EXISTS products",
		"doc JSONB NOT NULL",
		"created_at TIMESTAMPTZ NOT NULL",
		"(doc->>'name')",
		"DROP TABLE IF EXISTS products",
	} {
		assert.Contains(t, content, fragment)
	}
	// Category lives inside the document, never as a foreign key.
	assert.NotContains(t, strings.ToUpper(content), "REFERENCES")
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "catalog",
		Password: "p@ss word",
		Database: "catalog",
		Schema:   "public",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/catalog", u.Path)
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "public", u.Query().Get("search_path"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
