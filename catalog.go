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
package feeledger

import (
	"context"
	"sync"

	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/repository"
	"github.com/tomoncle/feeledger/types"
	"github.com/uptrace/bun"
)

// Catalog maintains reference rows such as fee groups, catalog lines,
// fine rules, payment types and accounts.
type Catalog[T any] interface {
	// Get returns a single row by id.
	Get(ctx context.Context, id any) (*T, error)

	All(ctx context.Context) ([]*T, error)

	// List returns the rows matching filter, all rows for a nil filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts new rows; generated ids are written back.
	Save(ctx context.Context, model ...*T) error

	// SaveOrUpdate upserts rows, updating fields when duplicateKeys collide.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	Update(ctx context.Context, model *T) error

	Delete(ctx context.Context, id any) error

	// WithTx returns a catalog bound to tx.
	WithTx(tx bun.Tx) Catalog[T]

	SelectBuilder() *bun.SelectQuery
}

type catalogImpl[T any] struct {
	db   bun.IDB
	repo repository.Repository[T]
	once sync.Once
}

// NewCatalog returns a catalog on db.
func NewCatalog[T any](db bun.IDB) Catalog[T] {
	return &catalogImpl[T]{db: db}
}

// NewDefaultCatalog returns a catalog on the global database. The database
// is resolved on first use, so it may be created before database.InitDB.
func NewDefaultCatalog[T any]() Catalog[T] {
	return &catalogImpl[T]{}
}

func (c *catalogImpl[T]) baseRepo() repository.Repository[T] {
	c.once.Do(func() {
		db := c.db
		if db == nil {
			db = database.GetDB()
		}
		c.repo = repository.NewRepository[T](db)
	})
	return c.repo
}

func (c *catalogImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return c.baseRepo().GetOne(ctx, id)
}

func (c *catalogImpl[T]) All(ctx context.Context) ([]*T, error) {
	return c.baseRepo().GetAll(ctx)
}

func (c *catalogImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return c.baseRepo().List(ctx, filter)
}

func (c *catalogImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return c.baseRepo().Page(ctx, page)
}

func (c *catalogImpl[T]) Save(ctx context.Context, model ...*T) error {
	return c.baseRepo().Create(ctx, model...)
}

func (c *catalogImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return c.baseRepo().Upsert(ctx, fields, duplicateKeys, model...)
}

func (c *catalogImpl[T]) Update(ctx context.Context, model *T) error {
	return c.baseRepo().Update(ctx, model)
}

func (c *catalogImpl[T]) Delete(ctx context.Context, id any) error {
	return c.baseRepo().Delete(ctx, id)
}

func (c *catalogImpl[T]) WithTx(tx bun.Tx) Catalog[T] {
	return &catalogImpl[T]{db: tx}
}

func (c *catalogImpl[T]) SelectBuilder() *bun.SelectQuery {
	return c.baseRepo().NewSelect()
}
