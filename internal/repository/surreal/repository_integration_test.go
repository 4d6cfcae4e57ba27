package surreal

import (
	"context"
	"testing"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/repository"
	"product-catalog/internal/repository/repositorytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *surrealdb.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v2.3.7",
			Cmd:          []string{"start", "--user", "root", "--pass", "root", "memory"},
			ExposedPorts: []string{"8000/tcp"},
			WaitingFor:   wait.ForListeningPort("8000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate surrealdb container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "8000/tcp", "ws")
	require.NoError(t, err)

	db, err := database.ConnectSurreal(ctx, config.SurrealConfig{
		URL:       endpoint,
		Namespace: "catalog",
		Database:  "test",
		User:      "root",
		Password:  "root",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

func TestRepositories_SurrealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping surrealdb integration test in short mode")
	}

	db := setupTestDB(t)
	repositorytest.Run(t, NewProductRepository(db), NewCategoryRepository(db), "never_assigned")
}

func TestProductRepository_SurrealDB_CorruptRecordIsNotNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping surrealdb integration test in short mode")
	}

	ctx := context.Background()
	db := setupTestDB(t)
	products := NewProductRepository(db)

	_, err := surrealdb.Query[any](ctx, db,
		"CREATE type::thing($table, 'corrupt') SET name = 'Mesa', price = 'cheap', createdAt = time::now(), category = { id: 'c1', name: 'Mobiliario' }",
		map[string]any{"table": productsTable},
	)
	require.NoError(t, err)

	_, err = products.FindByID(ctx, "corrupt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrProductNotFound)

	_, err = repository.Collect(products.FindAll(ctx))
	assert.ErrorContains(t, err, "price")
}
