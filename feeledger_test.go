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
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/config"
	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/fees"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/types"
	"github.com/uptrace/bun"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	cfg := config.Default()
	cfg.Database = *database.NewMemoryConfig("ledger_" + t.Name())
	cfg.Database.DataMigrateConfig.EnableMigrateOnStartup = true
	cfg.Fees.VoucherHead = "Tuition Income"

	l, err := Open(context.Background(), cfg, fees.WithClock(func() time.Time {
		return time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpenWiresServices(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	require.NotNil(t, database.GetDB())

	states, err := database.MigrationStatus(ctx)
	require.NoError(t, err)
	for _, st := range states {
		assert.True(t, st.Applied, st.Name)
	}
	assert.True(t, database.GetHealthStatus(ctx).Healthy)
	assert.Equal(t, 1, database.GetDatabaseStats().MaxOpenConns)

	require.NoError(t, l.Images.Save(ctx, "logo", "logo.png"))
	path, err := l.Images.Get(ctx, "logo")
	require.NoError(t, err)
	assert.Equal(t, "logo.png", path)

	scope := fees.Scope{SessionID: 1, BranchID: 1, UserID: 1, UserStamp: "admin"}
	require.NoError(t, l.Accounts.Save(ctx, &models.Account{Name: "Bank", Balance: decimalOf(t, "0"), BranchID: 1}))
	accounts, err := l.Accounts.All(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	_, err = l.Fees.SaveTransaction(ctx, scope, fees.Posting{AccountID: accounts[0].ID, Amount: decimalOf(t, "75"), Date: time.Now()})
	require.NoError(t, err)

	var head models.VoucherHead
	require.NoError(t, l.DB.NewSelect().Model(&head).Limit(1).Scan(ctx))
	assert.Equal(t, "Tuition Income", head.Name)
}

func TestServicesSurviveReconnect(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	require.NoError(t, l.Images.Save(ctx, "logo", "logo.png"))

	require.NoError(t, database.GetDatabaseManager().Reconnect(ctx))
	assert.Same(t, l.DB, database.GetDB())

	bal, err := l.Fees.GetBalance(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, bal.Balance.IsZero())

	path, err := l.Images.Get(ctx, "logo")
	require.NoError(t, err)
	assert.Equal(t, "logo.png", path)

	_, err = l.FeeGroups.All(ctx)
	assert.NoError(t, err)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	groups := []*models.FeeGroup{
		{Name: "Term 1", SessionID: 1, BranchID: 1},
		{Name: "Term 2", SessionID: 1, BranchID: 1},
		{Name: "Old", SessionID: 0, BranchID: 1},
	}
	require.NoError(t, l.FeeGroups.Save(ctx, groups...))

	current, err := l.FeeGroups.List(ctx, types.NewQueryFilter("session_id = ?", 1).And("branch_id = ?", 1))
	require.NoError(t, err)
	assert.Len(t, current, 2)

	page, err := l.FeeGroups.Page(ctx, types.NewPageRequestWithOrders(1, 2, []string{"id DESC"}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Old", page.Items[0].Name)

	g, err := l.FeeGroups.Get(ctx, current[0].ID)
	require.NoError(t, err)
	g.Description = "first term"
	require.NoError(t, l.FeeGroups.Update(ctx, g))

	// a catalog bound to a rolled back transaction leaves nothing behind
	rollback := errors.New("rollback")
	err = database.WithTx(ctx, l.DB, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := l.FeeGroups.WithTx(tx).Delete(ctx, g.ID); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	g, err = NewDefaultCatalog[models.FeeGroup]().Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "first term", g.Description)

	require.NoError(t, l.PaymentTypes.SaveOrUpdate(ctx, []string{"name"}, []string{"id"},
		&models.PaymentType{ID: 1, Name: "Cash"}))
	require.NoError(t, l.PaymentTypes.SaveOrUpdate(ctx, []string{"name"}, []string{"id"},
		&models.PaymentType{ID: 1, Name: "Cash Desk"}))
	pt, err := l.PaymentTypes.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cash Desk", pt.Name)
	n, err := l.PaymentTypes.SelectBuilder().Model((*models.PaymentType)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
