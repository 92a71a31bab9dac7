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
// Package images keeps the image paths configured for a school, keyed by
// a stable image key such as "logo" or "signature".
package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/repository"
	"github.com/uptrace/bun"
)

type Store struct {
	repo repository.Repository[models.ImageSetting]
}

func NewStore(db bun.IDB) *Store {
	return &Store{repo: repository.NewRepository[models.ImageSetting](db)}
}

// Get returns the path stored for key, or "" when there is none.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	img, err := s.repo.First(ctx, "image_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("image %q: %w", key, err)
	}
	return img.ImagePath, nil
}

// Save points key at path, inserting the key on first use.
func (s *Store) Save(ctx context.Context, key, path string) error {
	exists, err := s.repo.Exists(ctx, "image_key = ?", key)
	if err != nil {
		return fmt.Errorf("image %q: %w", key, err)
	}
	if exists {
		return s.update(ctx, key, path)
	}
	err = s.repo.Create(ctx, &models.ImageSetting{ImageKey: key, ImagePath: path})
	if database.IsDuplicateKey(err) {
		// inserted concurrently
		return s.update(ctx, key, path)
	}
	if err != nil {
		return fmt.Errorf("insert image %q: %w", key, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, key, path string) error {
	_, err := s.repo.NewUpdate().
		Model((*models.ImageSetting)(nil)).
		Set("image_path = ?", path).
		Where("image_key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update image %q: %w", key, err)
	}
	return nil
}

// SaveAll writes several keys in one upsert on image_key.
func (s *Store) SaveAll(ctx context.Context, paths map[string]string) error {
	if len(paths) == 0 {
		return nil
	}
	rows := make([]*models.ImageSetting, 0, len(paths))
	for k, p := range paths {
		rows = append(rows, &models.ImageSetting{ImageKey: k, ImagePath: p})
	}
	if err := s.repo.Upsert(ctx, []string{"image_path"}, []string{"image_key"}, rows...); err != nil {
		return fmt.Errorf("upsert %d images: %w", len(rows), err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ImageKey] = r.ImagePath
	}
	return out, nil
}
