package storage

import (
	"context"
	"testing"

	migrator "github.com/cybertec-postgresql/pgx-migrator"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func TestPointStoreMigrate(t *testing.T) {
	oldInitMigrator := initMigrator
	t.Cleanup(func() {
		initMigrator = oldInitMigrator
	})

	a := assert.New(t)
	conn, err := pgxmock.NewPool()
	a.NoError(err)

	// Mock the migrator to use simple migrations for testing
	initMigrator = func(_ *PointStore) (*migrator.Migrator, error) {
		return migrator.New(
			migrator.TableName("migration"),
			migrator.Migrations(
				&migrator.Migration{
					Name: "Test migration 1",
					Func: func(ctx context.Context, tx pgx.Tx) error {
						_, err := tx.Query(ctx, "SELECT 1 AS col1")
						return err
					},
				},
				&migrator.Migration{
					Name: "Test migration 2",
					Func: func(ctx context.Context, tx pgx.Tx) error {
						_, err := tx.Query(ctx, "SELECT 2 AS col2")
						return err
					},
				},
			),
		)
	}

	conn.ExpectExec(`CREATE TABLE IF NOT EXISTS migration`).WillReturnResult(pgxmock.NewResult("CREATE", 1))
	conn.ExpectQuery(`SELECT count`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	// Expect transaction for migration 1 execution
	conn.ExpectBegin()
	conn.ExpectQuery(`SELECT 1 AS col1`).WillReturnRows(pgxmock.NewRows([]string{"col1"}).AddRow(1))
	conn.ExpectExec(`INSERT INTO`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	conn.ExpectCommit()

	// Expect transaction for migration 2 execution
	conn.ExpectBegin()
	conn.ExpectQuery(`SELECT 2 AS col2`).WillReturnRows(pgxmock.NewRows([]string{"col2"}).AddRow(2))
	conn.ExpectExec(`INSERT INTO`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	conn.ExpectCommit()

	ps := &PointStore{ctx: ctx, storeDb: conn}
	a.False(ps.Ready())
	err = ps.Migrate()
	a.NoError(err)
	a.True(ps.Ready(), "store becomes ready once the ledger is reconciled")
	a.NoError(conn.ExpectationsWereMet())
}

func TestPointStoreNeedsMigration(t *testing.T) {
	a := assert.New(t)
	conn, err := pgxmock.NewPool()
	a.NoError(err)

	conn.ExpectQuery(`SELECT to_regclass`).
		WithArgs("migration").
		WillReturnRows(pgxmock.NewRows([]string{"to_regclass"}).AddRow(true))
	conn.ExpectQuery(`SELECT count`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	ps := &PointStore{ctx: ctx, storeDb: conn}
	needs, err := ps.NeedsMigration()
	a.NoError(err)
	a.True(needs)
	a.NoError(conn.ExpectationsWereMet())
}

func TestPointStoreNeedsMigrationNoMigrationNeeded(t *testing.T) {
	a := assert.New(t)
	conn, err := pgxmock.NewPool()
	a.NoError(err)

	conn.ExpectQuery(`SELECT to_regclass`).
		WithArgs("migration").
		WillReturnRows(pgxmock.NewRows([]string{"to_regclass"}).AddRow(true))
	conn.ExpectQuery(`SELECT count`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	ps := &PointStore{ctx: ctx, storeDb: conn}
	needs, err := ps.NeedsMigration()
	a.NoError(err)
	a.False(needs)
	a.NoError(conn.ExpectationsWereMet())
}

func TestPointStoreMigrateFail(t *testing.T) {
	oldInitMigrator := initMigrator
	t.Cleanup(func() {
		initMigrator = oldInitMigrator
	})
	a := assert.New(t)
	ps := &PointStore{ctx: ctx}
	initMigrator = func(*PointStore) (*migrator.Migrator, error) {
		return nil, assert.AnError
	}
	err := ps.Migrate()
	a.Error(err)
	a.Contains(err.Error(), "cannot initialize migration")
}

func TestInitMigrator(t *testing.T) {
	m, err := initMigrator(&PointStore{ctx: ctx})
	assert.NoError(t, err)
	assert.NotNil(t, m)
}
