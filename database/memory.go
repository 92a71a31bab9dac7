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
	"time"
)

// NewMemoryConfig returns a config for a named shared-cache in-memory sqlite
// database. The pool holds exactly one connection, which keeps the database
// alive and serialises writers.
func NewMemoryConfig(name string) *Config {
	return &Config{
		ConnectionConfig: ConnectionConfig{
			Type:           "sqlite",
			DBName:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
			MaxIdleConns:   1,
			MaxOpenConns:   1,
			ConnectTimeout: 5 * time.Second,
		},
	}
}

// OpenMemory connects a manager to an in-memory database and applies every
// migration.
func OpenMemory(ctx context.Context, name string) (AbstractDatabaseManager, error) {
	cfg := NewMemoryConfig(name)
	manager := NewDatabaseManager(&cfg.ConnectionConfig, cfg.DataMigrateConfig)
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}
	if err := manager.RunMigrations(ctx); err != nil {
		_ = manager.Disconnect()
		return nil, err
	}
	manager.GetDB().RegisterModel(RegisteredModelInstances()...)
	return manager, nil
}
