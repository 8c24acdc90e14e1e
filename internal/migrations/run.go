package migrations

import (
	"context"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/go-logr/logr"
	"github.com/openshift/kibana-migrator/internal/config"
)

// RunMigrations runs the configured migrations in order and stops at the
// first one that fails.
func RunMigrations(ctx context.Context, mr MigrationRequest, cfg *config.Config, log logr.Logger) error {
	for _, m := range cfg.Migrations {
		ll := log.WithValues("migration", m.Name, "type", m.Type)
		ll.Info("running migration")

		mappings, err := m.IndexMapping()
		if err != nil {
			return err
		}

		switch m.Type {
		case config.MigrationUpdateMappings:
			err = mr.UpdateMappingsInPlace(ctx, UpdateMappingsPlan{
				Index:       m.Index,
				Mappings:    mappings,
				BatchSize:   m.BatchSize,
				Query:       m.QueryJSON(),
				WaitTimeout: cfg.WaitTimeout,
			})
		case config.MigrationReindex:
			err = mr.ReindexToNewIndex(ctx, ReindexPlan{
				Alias:       m.Alias,
				SourceIndex: m.SourceIndex,
				TargetIndex: m.TargetIndex,
				Mappings:    mappings,
				Script:      m.Script,
				BatchSize:   m.BatchSize,
				Query:       m.QueryJSON(),
				WaitTimeout: cfg.WaitTimeout,
			})
		default:
			err = kverrors.New("unknown migration type",
				"migration", m.Name,
				"type", m.Type)
		}
		if err != nil {
			return kverrors.Wrap(err, "migration failed",
				"migration", m.Name)
		}
		ll.Info("migration completed")
	}
	return nil
}
