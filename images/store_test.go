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
package images

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/database"
	_ "github.com/tomoncle/feeledger/models"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	m, err := database.OpenMemory(context.Background(), fmt.Sprintf("images_test_%d", dbSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Disconnect() })
	return NewStore(m.GetDB())
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	path, err := s.Get(context.Background(), "logo")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestStoreSaveUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, "logo", "uploads/logo.png"))
	require.NoError(t, s.Save(ctx, "signature", "uploads/sign.png"))
	require.NoError(t, s.Save(ctx, "logo", "uploads/logo-v2.png"))

	path, err := s.Get(ctx, "logo")
	require.NoError(t, err)
	assert.Equal(t, "uploads/logo-v2.png", path)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"logo":      "uploads/logo-v2.png",
		"signature": "uploads/sign.png",
	}, all)
}

func TestStoreSaveAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, "logo", "old.png"))

	require.NoError(t, s.SaveAll(ctx, map[string]string{
		"logo":      "new.png",
		"watermark": "mark.png",
	}))
	require.NoError(t, s.SaveAll(ctx, nil))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"logo": "new.png", "watermark": "mark.png"}, all)
}

func TestStoreAllEmpty(t *testing.T) {
	all, err := newTestStore(t).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
