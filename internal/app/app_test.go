package app

import (
	"context"
	"testing"

	"muebles-catalog/internal/config"
	"muebles-catalog/internal/model"
	"muebles-catalog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		AppName:         "muebles-catalog",
		Store:           config.StoreMemory,
		CacheTTLSeconds: 60,
		MaxUploadSizeMB: 5,
	}

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	assert.Nil(t, a.Mongo)
	assert.Nil(t, a.Assets)
	assert.False(t, a.Cache.RedisEnabled())
	assert.EqualValues(t, 5<<20, MaxUploadBytes(cfg))

	in := model.ProductInput{Nombre: "silla", Categoria: "sillas", Codigo: "S-1", Tipo: "Producto Terminado"}
	_, err = a.Products.Create(ctx, in)
	require.NoError(t, err)

	_, err = a.Products.Create(ctx, in)
	var dup *service.DuplicateError
	assert.ErrorAs(t, err, &dup)

	users, err := a.Users.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)

	health := a.Health.Check(ctx)
	assert.True(t, health.Healthy())
	assert.Equal(t, service.StatusSkipped, health.Mongo)
}

func TestNewWithZeroCacheTTLDisablesCache(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		AppName:         "muebles-catalog",
		Store:           config.StoreMemory,
		RedisAddr:       "127.0.0.1:1",
		CacheTTLSeconds: 0,
		MaxUploadSizeMB: 5,
	}

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	assert.Nil(t, a.Cache)
	assert.Equal(t, service.StatusSkipped, a.Health.Check(ctx).Redis)

	_, err = a.Products.Create(ctx, model.ProductInput{Nombre: "silla", Categoria: "sillas", Codigo: "S-1", Tipo: "Producto Terminado"})
	require.NoError(t, err)
	got, err := a.Products.List(ctx, model.ProductFilter{Nombre: "silla"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
