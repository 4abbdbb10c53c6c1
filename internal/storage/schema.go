package storage

import (
	"context"
	"fmt"

	migrator "github.com/cybertec-postgresql/pgx-migrator"
	"github.com/jackc/pgx/v5"
	"github.com/somnial/somnial/internal/log"
)

var initMigrator = func(ps *PointStore) (*migrator.Migrator, error) {
	return migrator.New(
		migrator.TableName("migration"),
		migrator.SetNotice(func(s string) {
			log.GetLogger(ps.ctx).Info(s)
		}),
		migrations(),
	)
}

// Migrate applies all schema steps not yet recorded in the migration
// ledger, in order. Each step runs in its own transaction: it either
// lands completely or not at all. A failure here is fatal to startup.
func (ps *PointStore) Migrate() error {
	m, err := initMigrator(ps)
	if err != nil {
		return fmt.Errorf("cannot initialize migration: %w", err)
	}
	if err = m.Migrate(ps.ctx, ps.storeDb); err != nil {
		return err
	}
	ps.ready.Store(true)
	return nil
}

// NeedsMigration checks if the store schema has pending steps
func (ps *PointStore) NeedsMigration() (bool, error) {
	m, err := initMigrator(ps)
	if err != nil {
		return false, err
	}
	return m.NeedUpgrade(ps.ctx, ps.storeDb)
}

// migrations holds the full schema history of the points table. The store
// must be reproducible end-to-end from an empty database, so old steps are
// never edited: the interim ownership-token design from 00002 is
// deliberately removed again in 00003, leaving the namespace string itself
// as the only write capability.
var migrations func() migrator.Option = func() migrator.Option {
	return migrator.Migrations(
		&migrator.Migration{
			Name: "00001 Baseline metrics table",
			Func: func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `
					CREATE TABLE metrics (
						id text NOT NULL,
						value double precision NOT NULL,
						timestamp bigint NOT NULL
					);
					CREATE INDEX metrics_id_timestamp_idx ON metrics (id, timestamp);
				`)
				return err
			},
		},

		&migrator.Migration{
			Name: "00002 Add namespace and owner token",
			Func: func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `
					ALTER TABLE metrics
						ADD COLUMN namespace text NOT NULL DEFAULT '',
						ADD COLUMN owner_token text;
					CREATE INDEX metrics_namespace_id_idx ON metrics (namespace, id);
					CREATE INDEX metrics_namespace_owner_token_idx ON metrics (namespace, owner_token);
				`)
				return err
			},
		},

		&migrator.Migration{
			Name: "00003 Collapse to namespace-partitioned table",
			Func: func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `
					DROP INDEX metrics_namespace_owner_token_idx;
					DROP INDEX metrics_namespace_id_idx;
					DROP INDEX metrics_id_timestamp_idx;
					ALTER TABLE metrics DROP COLUMN owner_token;
					CREATE INDEX metrics_namespace_id_timestamp_idx ON metrics (namespace, id, timestamp);
				`)
				return err
			},
		},

		// adding a new migration here, keep names in ascending order

		// &migrator.Migration{
		// 	Name: "000XX Short description of a migration",
		// 	Func: func(ctx context.Context, tx pgx.Tx) error {
		// 		_, err := tx.Exec(ctx, `...`)
		// 		return err
		// 	},
		// },
	)
}
