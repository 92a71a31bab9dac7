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

package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/database"
	"github.com/uptrace/bun"
)

func indexExists(t *testing.T, db *bun.DB, name string) bool {
	t.Helper()
	n, err := db.NewSelect().
		TableExpr("sqlite_master").
		Where("type = 'index' AND name = ?", name).
		Count(context.Background())
	require.NoError(t, err)
	return n > 0
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := openTestManager(t)

	require.NoError(t, m.RunMigrations(ctx))

	n, err := m.GetDB().NewSelect().Model((*database.Migration)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, idx := range database.FeeIndexes {
		assert.True(t, indexExists(t, m.GetDB(), idx.Name), idx.Name)
	}
}

func TestMigrationStatus(t *testing.T) {
	m := openTestManager(t)

	states, err := m.MigrationStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "001", states[0].Version)
	assert.Equal(t, "create_base_tables", states[0].Name)
	assert.Equal(t, "002", states[1].Version)
	for _, s := range states {
		assert.True(t, s.Applied, s.Version)
		assert.False(t, s.AppliedAt.IsZero(), s.Version)
	}
}

func TestRollbackMigration(t *testing.T) {
	ctx := context.Background()
	m := openTestManager(t)
	db := m.GetDB()

	require.NoError(t, m.RollbackMigration(ctx))
	assert.False(t, indexExists(t, db, "idx_fph_allocation_type"))

	states, err := m.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Applied)
	assert.False(t, states[1].Applied)

	require.NoError(t, m.RunMigrations(ctx))
	assert.True(t, indexExists(t, db, "idx_fph_allocation_type"))
}

func TestRollbackAllMigrations(t *testing.T) {
	ctx := context.Background()
	m := openTestManager(t)
	db := m.GetDB()

	require.NoError(t, m.RollbackMigration(ctx))
	require.NoError(t, m.RollbackMigration(ctx))

	_, err := db.ExecContext(ctx, "SELECT count(*) FROM fee_allocation")
	ok, kind := database.IsSqlError(err)
	assert.True(t, ok)
	assert.Equal(t, database.NoTableErr, kind)

	assert.ErrorIs(t, m.RollbackMigration(ctx), database.ErrNothingToRollback)

	require.NoError(t, m.RunMigrations(ctx))
	_, err = db.ExecContext(ctx, "SELECT count(*) FROM fee_allocation")
	assert.NoError(t, err)
}
