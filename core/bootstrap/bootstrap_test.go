package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/docbot/core/config"
	coredatabase "github.com/m3rciful/docbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	connected := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, errors.New("unexpected")
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.False(t, connected)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.ErrorIs(t, err, errNilConfig)
}

func TestRunPropagatesConnectError(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, errors.New("refused")
		},
	})
	assert.ErrorContains(t, err, "refused")
}

func TestRunSurfacesMigrationFailure(t *testing.T) {
	db, err := sqlx.Open("postgres", "host=127.0.0.1 sslmode=disable")
	require.NoError(t, err)
	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return db, nil
		},
		Migrate: func(context.Context, coredatabase.Config) error {
			return errors.New("dirty database version 3")
		},
	})
	assert.ErrorContains(t, err, "migrations: dirty database version 3")
	assert.ErrorContains(t, db.Ping(), "database is closed")
}

func TestRunSeedsAfterMigrations(t *testing.T) {
	var calls []string
	db := &sqlx.DB{}
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			calls = append(calls, "connect")
			return db, nil
		},
		Migrate: func(context.Context, coredatabase.Config) error {
			calls = append(calls, "migrate")
			return nil
		},
		Modules: Modules{Seeders: []Seeder{SeederFunc(func(_ context.Context, got *sqlx.DB) error {
			calls = append(calls, "seed")
			assert.Same(t, db, got)
			return nil
		})}},
	})
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.Equal(t, []string{"connect", "migrate", "seed"}, calls)
}
