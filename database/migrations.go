/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// ErrNothingToRollback is returned by RollbackMigration when no migration
// has been applied.
var ErrNothingToRollback = errors.New("no applied migration to roll back")

// MigrationManager applies and reverts the versioned schema migrations.
type MigrationManager struct {
	db       *bun.DB
	logger   Logger
	config   DataMigrateConfig
	registry ModelRegistry
}

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

func NewMigrationManager(db *bun.DB, logger Logger, cfg DataMigrateConfig) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{
		db:       db,
		logger:   logger,
		config:   cfg,
		registry: defaultRegistry,
	}
}

// WithRegistry replaces the model registry used by the base table migration.
func (mm *MigrationManager) WithRegistry(r ModelRegistry) *MigrationManager {
	mm.registry = r
	return mm
}

// RunMigrations creates the migration tracking table if needed and executes
// every pending migration in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	mm.silence()
	defer EnableSilentQueryLog(false)

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	for _, migration := range mm.Migrations() {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}
	mm.logger.Info("Database migrations completed!")
	return nil
}

// silence mutes query hooks unless BUNDEBUG_MIGRATION is set.
func (mm *MigrationManager) silence() {
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableSilentQueryLog(true)
	}
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Migrations returns the known migrations sorted by version.
func (mm *MigrationManager) Migrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create base table structure",
			Up:          mm.createBaseTables,
			Down:        mm.dropBaseTables,
		},
		{
			Version:     "002",
			Name:        "add_fees_indexes",
			Description: "Add lookup indexes for fee allocation, payment history, catalog and enrollment",
			Up: func(ctx context.Context, db bun.IDB) error {
				return createIndexes(ctx, db, FeeIndexes, mm.logger)
			},
			Down: func(ctx context.Context, db bun.IDB) error {
				return dropIndexes(ctx, db, FeeIndexes, mm.logger)
			},
		},
	}
	if mm.config.EnableForeignKey {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "add_foreign_keys",
			Description: "Add table foreign key constraints",
			Up:          mm.addForeignKeys,
			Down:        mm.dropForeignKeys,
		})
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = WithTx(ctx, mm.db, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now().UTC(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

// RollbackMigration reverts the most recently applied migration and removes
// its record.
func (mm *MigrationManager) RollbackMigration(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	mm.silence()
	defer EnableSilentQueryLog(false)

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	var last Migration
	err := mm.db.NewSelect().
		Model(&last).
		Order("version DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNothingToRollback
	}
	if err != nil {
		return err
	}

	var item *MigrationItem
	for _, m := range mm.Migrations() {
		if m.Version == last.Version {
			m := m
			item = &m
			break
		}
	}
	if item == nil || item.Down == nil {
		return fmt.Errorf("migration %s (%s) cannot be rolled back", last.Version, last.Name)
	}

	err = WithTx(ctx, mm.db, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := item.Down(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("version = ?", item.Version).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to roll back migration %s: %w", item.Version, err)
	}
	mm.logger.Info("Migration rolled back", "version", item.Version, "name", item.Name)
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// Status reports every known migration and whether it has been applied.
func (mm *MigrationManager) Status(ctx context.Context) ([]MigrationState, error) {
	if err := mm.createMigrationTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[string]Migration, len(applied))
	for _, m := range applied {
		byVersion[m.Version] = m
	}
	var states []MigrationState
	for _, item := range mm.Migrations() {
		st := MigrationState{Version: item.Version, Name: item.Name}
		if m, ok := byVersion[item.Version]; ok {
			st.Applied = true
			st.AppliedAt = m.AppliedAt
		}
		states = append(states, st)
	}
	return states, nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range instancesOf(mm.registry.Models()) {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) dropBaseTables(ctx context.Context, db bun.IDB) error {
	models := instancesOf(mm.registry.Models())
	for i := len(models) - 1; i >= 0; i-- {
		_, err := db.NewDropTable().
			Model(models[i]).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop table %T: %w", models[i], err)
		}
	}
	return nil
}

func (mm *MigrationManager) foreignKeyManager() (*ForeignKeyManager, error) {
	path := mm.config.ForeignKeyFile
	if path == "" {
		return NewForeignKeyManager(mm.logger), nil
	}
	fkm, err := NewForeignKeyManagerFromFile(mm.logger, path)
	if err != nil {
		mm.logger.Debug("Failed to use config-based foreign key manager, falling back to code-defined", "error", err.Error())
		return NewForeignKeyManager(mm.logger), nil
	}
	if errs := fkm.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			mm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
		}
		return nil, fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	mm.logger.Debug("Managing foreign key constraints using config file", "config_path", path)
	return fkm, nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	fkm, err := mm.foreignKeyManager()
	if err != nil {
		return err
	}
	return fkm.AddAllForeignKeys(ctx, db)
}

func (mm *MigrationManager) dropForeignKeys(ctx context.Context, db bun.IDB) error {
	fkm, err := mm.foreignKeyManager()
	if err != nil {
		return err
	}
	return fkm.DropAllForeignKeys(ctx, db)
}
