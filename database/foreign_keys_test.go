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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/database"
)

func TestDefaultForeignKeysAreValid(t *testing.T) {
	fkm := database.NewForeignKeyManager(nil)
	assert.Empty(t, fkm.ValidateConstraints())
	assert.NotEmpty(t, fkm.ListAllConstraints())

	byTable := fkm.GetConstraintsByTable("FEE_ALLOCATION")
	require.Len(t, byTable, 2)
	assert.Equal(t, "fk_fee_allocation_student_id", byTable[0].GenerateConstraintName())
}

func TestForeignKeyGenerateSQL(t *testing.T) {
	fk := database.ForeignKeyConstraint{
		Table:           "voucher",
		Column:          "transactions_id",
		ReferenceTable:  "transactions",
		ReferenceColumn: "id",
		OnDelete:        "cascade",
		ConstraintName:  "fk_voucher_tx",
	}
	assert.Equal(t,
		"ALTER TABLE voucher ADD CONSTRAINT fk_voucher_tx FOREIGN KEY (transactions_id) REFERENCES transactions(id) ON DELETE CASCADE",
		fk.GenerateSQL())
}

func TestForeignKeysFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
foreign_keys:
  - table: fee_allocation
    column: group_id
    reference_table: fee_groups
    reference_column: id
    on_delete: explode
  - table: enroll
    reference_table: student
    reference_column: id
`), 0o600))

	fkm, err := database.NewForeignKeyManagerFromFile(nil, path)
	require.NoError(t, err)
	assert.Len(t, fkm.ListAllConstraints(), 2)
	assert.Len(t, fkm.ValidateConstraints(), 2)
}

func TestForeignKeysFromMissingFile(t *testing.T) {
	_, err := database.NewForeignKeyManagerFromFile(nil, filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestForeignKeysSkippedOnSQLite(t *testing.T) {
	db := openTestManager(t).GetDB()
	fkm := database.NewForeignKeyManager(nil)
	assert.NoError(t, fkm.AddAllForeignKeys(context.Background(), db))
	assert.NoError(t, fkm.DropAllForeignKeys(context.Background(), db))
}
