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
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/extra/bundebug"
)

const (
	defaultConnectTimeout = 30 * time.Second
	healthPingTimeout     = 5 * time.Second
)

type defaultDatabaseManager struct {
	config  *ConnectionConfig
	migrate DataMigrateConfig
	logger  Logger

	mu        sync.RWMutex
	db        *bun.DB
	sqlDB     *sql.DB
	connected bool

	// the background health loop, running while connected
	stopHealth     context.CancelFunc
	reconnectTries int
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun. A nil
// config falls back to DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig, migrate DataMigrateConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{
		config:  config,
		migrate: migrate,
		logger:  GetLogger(),
	}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	// an unhealthy pool is revived by Reconnect, never replaced
	if dm.db != nil {
		return nil
	}
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = defaultConnectTimeout
	}

	sqlDB, db, err := dm.open()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.sqlDB, dm.db = sqlDB, db
	dm.connected = true

	if dm.config.HealthCheckInterval > 0 {
		dm.startHealthLoop()
	}
	dm.logger.Info("Database connected successfully", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

// open builds the pool for the configured driver and installs the query
// hooks. It does not touch the network.
func (dm *defaultDatabaseManager) open() (*sql.DB, *bun.DB, error) {
	d, err := lookupDriver(dm.config.Type)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := sql.Open(d.name, d.dsn(dm.config))
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)

	db := bun.NewDB(sqlDB, d.dialect())
	if dm.config.EnableQueryLog {
		db.AddQueryHook(NewQueryHook(true, false, os.Stdout))
	}
	if dm.config.VerboseQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
	return sqlDB, db, nil
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.closeLocked()
}

func (dm *defaultDatabaseManager) closeLocked() error {
	if dm.stopHealth != nil {
		dm.stopHealth()
		dm.stopHealth = nil
	}
	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	dm.connected = false
	if err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	dm.logger.Info("Database connection closed")
	return nil
}

// Reconnect revives the existing pool instead of replacing it, so the
// *bun.DB returned by GetDB stays valid for every service holding it. Idle
// connections are dropped to force a fresh dial, then the pool is pinged.
// A manager that was never connected connects.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.mu.RLock()
	db, sqlDB := dm.db, dm.sqlDB
	dm.mu.RUnlock()
	if db == nil {
		return dm.Connect(ctx)
	}

	dm.logger.Info("Attempting to reconnect to the database")
	// closing the last connection would drop an in-memory sqlite database
	if db.Dialect().Name() != dialect.SQLite {
		sqlDB.SetMaxIdleConns(0)
		sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	}

	timeout := dm.config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := db.PingContext(pingCtx)

	dm.mu.Lock()
	if dm.db == db {
		dm.connected = err == nil
	}
	dm.mu.Unlock()
	if err != nil {
		return fmt.Errorf("database reconnect failed: %w", err)
	}
	return nil
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

// HealthCheck pings the database and reports pool usage. A failed ping marks
// the manager disconnected until the next successful check or reconnect.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.RLock()
	db, sqlDB := dm.db, dm.sqlDB
	dm.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}
	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	err := db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}

	stats := sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	dm.mu.Lock()
	if dm.db == db {
		dm.connected = status.Connected
	}
	dm.mu.Unlock()
	return status
}

// startHealthLoop must be called with dm.mu held. The loop runs until
// Disconnect and survives failed reconnects.
func (dm *defaultDatabaseManager) startHealthLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	dm.stopHealth = cancel
	interval := dm.config.HealthCheckInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, done := context.WithTimeout(ctx, 2*healthPingTimeout)
				status := dm.HealthCheck(checkCtx)
				done()
				if status.Healthy {
					dm.setReconnectTries(0)
					continue
				}
				if dm.config.EnableReconnect {
					dm.reconnect(ctx)
				}
			}
		}
	}()
}

func (dm *defaultDatabaseManager) setReconnectTries(n int) {
	dm.mu.Lock()
	dm.reconnectTries = n
	dm.mu.Unlock()
}

// ReconnectTries reports the failed reconnect attempts since the last
// healthy check.
func (dm *defaultDatabaseManager) ReconnectTries() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.reconnectTries
}

// reconnect makes one attempt, at most MaxReconnectTries in a row.
func (dm *defaultDatabaseManager) reconnect(loopCtx context.Context) {
	dm.mu.Lock()
	if dm.reconnectTries >= dm.config.MaxReconnectTries {
		dm.mu.Unlock()
		return
	}
	dm.reconnectTries++
	try := dm.reconnectTries
	dm.mu.Unlock()

	dm.logger.Info("Starting database reconnect", "try", try)
	select {
	case <-loopCtx.Done():
		return
	case <-time.After(dm.config.ReconnectInterval):
	}

	if err := dm.Reconnect(loopCtx); err != nil {
		dm.logger.Error("Reconnect failed", "error", err, "try", try)
		if try >= dm.config.MaxReconnectTries {
			dm.logger.Error("Max reconnect attempts reached, stopping", "tries", try)
		}
		return
	}
	dm.setReconnectTries(0)
	dm.logger.Info("Reconnect succeeded")
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) migrationManager() (*MigrationManager, error) {
	db := dm.GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.logger, dm.migrate), nil
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	mm, err := dm.migrationManager()
	if err != nil {
		return err
	}
	return mm.RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) RollbackMigration(ctx context.Context) error {
	mm, err := dm.migrationManager()
	if err != nil {
		return err
	}
	return mm.RollbackMigration(ctx)
}

func (dm *defaultDatabaseManager) MigrationStatus(ctx context.Context) ([]MigrationState, error) {
	mm, err := dm.migrationManager()
	if err != nil {
		return nil, err
	}
	return mm.Status(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
