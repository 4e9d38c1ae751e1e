//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go-label-ws/internal/model"
	"go-label-ws/internal/stock"
	"go-label-ws/pkg/database"
)

// setupDB starts a throwaway PostgreSQL container and migrates it.
// Run with: go test -tags integration ./internal/repository/...
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "etiquetas_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.Connect(fmt.Sprintf("postgres://test:test@%s:%s/etiquetas_test?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestRepositories(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	t.Run("stock item round trip with custody log", func(t *testing.T) {
		repo := NewStockRepo(db)
		item := &model.StockItem{Descricao: "ECU MOTOR", Serial: "AB12", Quantidade: 1, Status: model.StatusInStock}
		item.ID = uuid.New()
		stock.Seed(item, time.Now(), stock.Actor{Name: "ANA"})
		require.NoError(t, repo.Create(ctx, item))

		dup := &model.StockItem{Descricao: "OUTRO", Serial: "AB12", Quantidade: 1, Status: model.StatusInStock}
		dup.ID = uuid.New()
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateKey)

		for i := 0; i < 3; i++ {
			_, err := repo.Mutate(ctx, item.ID, func(it *model.StockItem) (*model.StockHistoryEntry, error) {
				e := stock.ApplyTransition(it, model.StatusLentOut, stock.StatusPatch{}, time.Now(), stock.Actor{})
				return &e, nil
			})
			require.NoError(t, err)
		}

		got, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, got.Historico, 4)
		assert.Equal(t, 4, got.Historico[0].Seq)
		assert.Equal(t, model.StatusNew, got.Historico[3].StatusAnterior)

		_, err = repo.FindBySerial(ctx, "ZZ99")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, repo.Delete(ctx, item.ID))
		assert.ErrorIs(t, repo.Delete(ctx, item.ID), ErrNotFound)
	})

	t.Run("concurrent transitions keep one entry each", func(t *testing.T) {
		repo := NewStockRepo(db)
		item := &model.StockItem{Descricao: "RETARDER", Serial: "RT77", Quantidade: 1, Status: model.StatusInStock}
		item.ID = uuid.New()
		stock.Seed(item, time.Now(), stock.Actor{})
		require.NoError(t, repo.Create(ctx, item))

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Mutate(ctx, item.ID, func(it *model.StockItem) (*model.StockHistoryEntry, error) {
					e := stock.ApplyTransition(it, model.StatusInStock, stock.StatusPatch{}, time.Now(), stock.Actor{})
					return &e, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Len(t, got.Historico, 6)
	})

	t.Run("stock config lists only grow", func(t *testing.T) {
		repo := NewStockConfigRepo(db)
		require.NoError(t, repo.EnsureDefaults(ctx))

		cfg, err := repo.Update(ctx, func(c *model.StockConfig) bool {
			next, added := stock.OptionList(c.Tipos).With("Telemetria")
			c.Tipos = datatypes.JSONSlice[string](next)
			return added
		})
		require.NoError(t, err)

		again, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, cfg.Tipos, again.Tipos)
		assert.Equal(t, "Telemetria", again.Tipos[len(again.Tipos)-1])
	})

	t.Run("label history", func(t *testing.T) {
		repo := NewLabelHistoryRepo(db)
		older := &model.LabelHistory{LabelRecord: model.LabelRecord{Cliente: "A"}, Timestamp: time.Now().Add(-time.Hour)}
		newer := &model.LabelHistory{LabelRecord: model.LabelRecord{Cliente: "B"}, Timestamp: time.Now()}
		require.NoError(t, repo.Create(ctx, older))
		require.NoError(t, repo.Create(ctx, newer))
		assert.Len(t, newer.ShortID, 8)

		list, err := repo.FindAll(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "B", list[0].Cliente)

		require.NoError(t, repo.Delete(ctx, older.ID))
		assert.ErrorIs(t, repo.Delete(ctx, older.ID), ErrNotFound)

		n, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("only the first registrant is admin", func(t *testing.T) {
		repo := NewUserRepo(db)
		var wg sync.WaitGroup
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				u := &model.User{Email: fmt.Sprintf("u%d@example.com", i), Password: "x"}
				assert.NoError(t, repo.Register(ctx, u))
			}(i)
		}
		wg.Wait()

		users, err := repo.FindAll(ctx)
		require.NoError(t, err)
		admins := 0
		for _, u := range users {
			if u.Role == model.RoleAdmin {
				admins++
			}
		}
		assert.Equal(t, 1, admins)
	})

	t.Run("settings upsert", func(t *testing.T) {
		repo := NewSettingsRepo(db)
		_, err := repo.Get(ctx, model.SettingLabelKey)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, repo.Put(ctx, &model.AppSetting{Key: model.SettingLabelKey, Value: []byte(`{"width":50}`)}))
		require.NoError(t, repo.Put(ctx, &model.AppSetting{Key: model.SettingLabelKey, Value: []byte(`{"width":60}`)}))

		got, err := repo.Get(ctx, model.SettingLabelKey)
		require.NoError(t, err)
		assert.JSONEq(t, `{"width":60}`, string(got.Value))
	})
}
