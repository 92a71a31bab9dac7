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
	"os"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"gopkg.in/yaml.v3"
)

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete"` // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string `yaml:"on_update"`
	ConstraintName  string `yaml:"name"`
}

// ForeignKeyFile is the layout of DataMigrateConfig.ForeignKeyFile.
type ForeignKeyFile struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// GenerateSQL returns the ALTER TABLE statement to add the constraint.
func (fk *ForeignKeyConstraint) GenerateSQL() string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.GenerateConstraintName(), fk.Column, fk.ReferenceTable, fk.ReferenceColumn)
	if fk.OnDelete != "" {
		sql += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		sql += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return sql
}

// ForeignKeyManager adds and drops the fee schema constraints.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{constraints: feeForeignKeys(), logger: logger}
}

// NewForeignKeyManagerFromFile reads constraints from a YAML file.
func NewForeignKeyManagerFromFile(logger Logger, path string) (*ForeignKeyManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read foreign key file: %w", err)
	}
	var file ForeignKeyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse foreign key file %s: %w", path, err)
	}
	return &ForeignKeyManager{constraints: file.ForeignKeys, logger: logger}, nil
}

func feeForeignKeys() []ForeignKeyConstraint {
	return []ForeignKeyConstraint{
		{Table: "enroll", Column: "student_id", ReferenceTable: "student", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "fee_groups_details", Column: "fee_groups_id", ReferenceTable: "fee_groups", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "fee_groups_details", Column: "fee_type_id", ReferenceTable: "fees_type", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "fee_allocation", Column: "student_id", ReferenceTable: "student", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "fee_allocation", Column: "group_id", ReferenceTable: "fee_groups", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "fee_payment_history", Column: "allocation_id", ReferenceTable: "fee_allocation", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "fee_payment_history", Column: "type_id", ReferenceTable: "fees_type", ReferenceColumn: "id", OnDelete: "RESTRICT"},
		{Table: "payment_history", Column: "fee_invoice_id", ReferenceTable: "fee_invoice", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "transactions", Column: "account_id", ReferenceTable: "accounts", ReferenceColumn: "id", OnDelete: "RESTRICT"},
		{Table: "voucher", Column: "transactions_id", ReferenceTable: "transactions", ReferenceColumn: "id", OnDelete: "CASCADE"},
	}
}

// AddAllForeignKeys adds every constraint. Individual failures are logged and
// skipped so an existing constraint does not fail the migration. SQLite
// cannot add constraints to existing tables and is skipped entirely.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) error {
	if db.Dialect().Name() == dialect.SQLite {
		fkm.debug("Foreign keys are not supported by ALTER TABLE on sqlite, skipping")
		return nil
	}
	for _, c := range fkm.constraints {
		if _, err := db.ExecContext(ctx, c.GenerateSQL()); err != nil {
			fkm.debug("Failed to add foreign key constraint", "constraint", c.GenerateConstraintName(), "error", err.Error())
			continue
		}
		fkm.debug("Successfully added foreign key constraint", "constraint", c.GenerateConstraintName())
	}
	return nil
}

// DropAllForeignKeys removes the constraints in reverse order.
func (fkm *ForeignKeyManager) DropAllForeignKeys(ctx context.Context, db bun.IDB) error {
	name := db.Dialect().Name()
	if name == dialect.SQLite {
		return nil
	}
	for i := len(fkm.constraints) - 1; i >= 0; i-- {
		c := fkm.constraints[i]
		stmt := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", c.Table, c.GenerateConstraintName())
		if name == dialect.MySQL {
			stmt = fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", c.Table, c.GenerateConstraintName())
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fkm.debug("Failed to drop foreign key constraint", "constraint", c.GenerateConstraintName(), "error", err.Error())
		}
	}
	return nil
}

func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, c := range fkm.constraints {
		if strings.EqualFold(c.Table, tableName) {
			result = append(result, c)
		}
	}
	return result
}

func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

var validFKActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}

// ValidateConstraints checks the configured constraints for common issues.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error
	for _, c := range fkm.constraints {
		if c.Table == "" {
			errs = append(errs, fmt.Errorf("table name cannot be empty"))
		}
		if c.Column == "" {
			errs = append(errs, fmt.Errorf("column name cannot be empty: %s", c.Table))
		}
		if c.ReferenceTable == "" {
			errs = append(errs, fmt.Errorf("reference table name cannot be empty: %s.%s", c.Table, c.Column))
		}
		if c.ReferenceColumn == "" {
			errs = append(errs, fmt.Errorf("reference column name cannot be empty: %s.%s -> %s", c.Table, c.Column, c.ReferenceTable))
		}
		for _, action := range []string{c.OnDelete, c.OnUpdate} {
			if action != "" && !validFKAction(action) {
				errs = append(errs, fmt.Errorf("invalid referential action: %s, constraint: %s", action, c.GenerateConstraintName()))
			}
		}
	}
	return errs
}

func validFKAction(action string) bool {
	for _, a := range validFKActions {
		if strings.EqualFold(action, a) {
			return true
		}
	}
	return false
}

func (fkm *ForeignKeyManager) debug(msg string, fields ...interface{}) {
	if fkm.logger != nil {
		fkm.logger.Debug(msg, fields...)
	}
}
