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
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// IndexSpec is a secondary index managed by a migration.
type IndexSpec struct {
	Name    string
	Table   string
	Columns []string
}

// FeeIndexes are the lookup indexes used by the fee list and report queries.
var FeeIndexes = []IndexSpec{
	{Name: "idx_fa_student_session", Table: "fee_allocation", Columns: []string{"student_id", "session_id"}},
	{Name: "idx_fa_group_session", Table: "fee_allocation", Columns: []string{"group_id", "session_id"}},
	{Name: "idx_fph_allocation_type", Table: "fee_payment_history", Columns: []string{"allocation_id", "type_id"}},
	{Name: "idx_fph_date", Table: "fee_payment_history", Columns: []string{"date"}},
	{Name: "idx_fgd_group_type", Table: "fee_groups_details", Columns: []string{"fee_groups_id", "fee_type_id"}},
	{Name: "idx_enroll_class_section", Table: "enroll", Columns: []string{"class_id", "section_id"}},
	{Name: "idx_enroll_student_session", Table: "enroll", Columns: []string{"student_id", "session_id"}},
}

func createIndexes(ctx context.Context, db bun.IDB, specs []IndexSpec, logger Logger) error {
	// mysql has no CREATE INDEX IF NOT EXISTS; a duplicate index error is
	// treated as applied instead.
	mysql := db.Dialect().Name() == dialect.MySQL
	for _, idx := range specs {
		q := db.NewCreateIndex().
			Table(idx.Table).
			Index(idx.Name).
			Column(idx.Columns...)
		if !mysql {
			q = q.IfNotExists()
		}
		if _, err := q.Exec(ctx); err != nil {
			if ok, kind := IsSqlError(err); ok && kind == ExistIndexErr {
				if logger != nil {
					logger.Debug("Index already exists", "index", idx.Name)
				}
				continue
			}
			return fmt.Errorf("create index %s on %s(%s): %w", idx.Name, idx.Table, strings.Join(idx.Columns, ", "), err)
		}
	}
	return nil
}

func dropIndexes(ctx context.Context, db bun.IDB, specs []IndexSpec, logger Logger) error {
	mysql := db.Dialect().Name() == dialect.MySQL
	for i := len(specs) - 1; i >= 0; i-- {
		idx := specs[i]
		var err error
		if mysql {
			_, err = db.ExecContext(ctx, "ALTER TABLE ? DROP INDEX ?", bun.Ident(idx.Table), bun.Ident(idx.Name))
		} else {
			_, err = db.NewDropIndex().Index(idx.Name).IfExists().Exec(ctx)
		}
		if err != nil {
			if ok, kind := IsSqlError(err); ok && kind == NoIndexErr {
				if logger != nil {
					logger.Debug("Index already dropped", "index", idx.Name)
				}
				continue
			}
			return fmt.Errorf("drop index %s: %w", idx.Name, err)
		}
	}
	return nil
}
