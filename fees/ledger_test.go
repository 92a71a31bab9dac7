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
package fees

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/models"
	"github.com/uptrace/bun"
)

func seedAccount(t *testing.T, db bun.IDB, balance string) {
	t.Helper()
	mustInsert(t, db, &models.Account{ID: 1, Name: "Cash In Hand", Number: "1001", Balance: dec(balance), BranchID: 1})
}

func accountBalance(t *testing.T, db bun.IDB) string {
	t.Helper()
	var a models.Account
	require.NoError(t, db.NewSelect().Model(&a).Where("id = ?", 1).Scan(context.Background()))
	return a.Balance.StringFixed(2)
}

func TestSaveTransaction(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedAccount(t, db, "100")

	voucherID, err := svc.SaveTransaction(ctx, testScope, Posting{AccountID: 1, Amount: dec("250.50"), Date: day(time.March, 19)})
	require.NoError(t, err)
	require.NotZero(t, voucherID)
	assert.Equal(t, "350.50", accountBalance(t, db))

	var entries []models.Transaction
	require.NoError(t, db.NewSelect().Model(&entries).Scan(ctx))
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, models.EntryIncome, entry.Type)
	assert.Equal(t, models.PertainToVoucher, entry.PertainTo)
	assert.Equal(t, int64(7), entry.CreatedBy)
	assertDecimal(t, "250.50", entry.Amount)
	assertDecimal(t, "350.50", entry.Balance)
	assert.True(t, entry.Date.Equal(day(time.March, 19)))

	var v models.Voucher
	require.NoError(t, db.NewSelect().Model(&v).Where("id = ?", voucherID).Scan(ctx))
	assert.Equal(t, entry.ID, v.TransactionsID)
	assert.Equal(t, entry.VoucherHeadID, v.VoucherHeadID)
	assertDecimal(t, "250.50", v.Amount)

	var head models.VoucherHead
	require.NoError(t, db.NewSelect().Model(&head).Where("id = ?", v.VoucherHeadID).Scan(ctx))
	assert.Equal(t, DefaultVoucherHead, head.Name)
	assert.Equal(t, models.EntryIncome, head.Type)
	assert.Equal(t, 1, head.System)
	assert.Equal(t, int64(1), head.BranchID)
}

func TestSaveTransactionReusesVoucherHead(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedAccount(t, db, "0")

	for i := 0; i < 3; i++ {
		_, err := svc.SaveTransaction(ctx, testScope, Posting{AccountID: 1, Amount: dec("10"), Date: fixedClock()})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, countRows(t, db, "voucher_head"))
	assert.Equal(t, 3, countRows(t, db, "transactions"))
	assert.Equal(t, 3, countRows(t, db, "voucher"))
	assert.Equal(t, "30.00", accountBalance(t, db))

	other := testScope
	other.BranchID = 2
	_, err := svc.SaveTransaction(ctx, other, Posting{AccountID: 1, Amount: dec("1"), Date: fixedClock()})
	require.NoError(t, err)
	assert.Equal(t, 2, countRows(t, db, "voucher_head"))
}

func TestSaveTransactionInvalidAccount(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	_, err := svc.SaveTransaction(ctx, testScope, Posting{AccountID: 99, Amount: dec("10"), Date: fixedClock()})
	var pe *PostingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StepAccount, pe.Step)
	assert.ErrorIs(t, err, ErrInvalidAccount)
	assert.Zero(t, countRows(t, db, "transactions"))
	assert.Zero(t, countRows(t, db, "voucher_head"))
}

func TestSaveTransactionRollsBackWhenBalanceIsNotUpdated(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedAccount(t, db, "100")

	_, err := db.ExecContext(ctx, `CREATE TRIGGER hold_balance BEFORE UPDATE ON accounts
		WHEN CAST(NEW.balance AS REAL) > 1000
		BEGIN SELECT RAISE(IGNORE); END`)
	require.NoError(t, err)

	_, err = svc.SaveTransaction(ctx, testScope, Posting{AccountID: 1, Amount: dec("5000"), Date: fixedClock()})
	var pe *PostingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StepBalance, pe.Step)
	assert.ErrorIs(t, err, ErrBalanceUpdate)

	assert.Zero(t, countRows(t, db, "transactions"))
	assert.Zero(t, countRows(t, db, "voucher"))
	assert.Zero(t, countRows(t, db, "voucher_head"))
	assert.Equal(t, "100.00", accountBalance(t, db))

	// below the trigger threshold the posting goes through
	_, err = svc.SaveTransaction(ctx, testScope, Posting{AccountID: 1, Amount: dec("50"), Date: fixedClock()})
	require.NoError(t, err)
	assert.Equal(t, "150.00", accountBalance(t, db))
}

func TestSaveTransactionConcurrentPostings(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedAccount(t, db, "1000")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SaveTransaction(ctx, testScope, Posting{AccountID: 1, Amount: dec("12.5"), Date: fixedClock()})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, "1125.00", accountBalance(t, db))
	assert.Equal(t, workers, countRows(t, db, "transactions"))
	assert.Equal(t, workers, countRows(t, db, "voucher"))
	assert.Equal(t, 1, countRows(t, db, "voucher_head"))

	// whole balances come back from sqlite as integers
	var balances []decimal.Decimal
	require.NoError(t, db.NewSelect().TableExpr("transactions").ColumnExpr("balance").OrderExpr("id ASC").Scan(ctx, &balances))
	require.Len(t, balances, workers)
	for i, b := range balances {
		want := dec("1000").Add(dec("12.5").Mul(decimal.NewFromInt(int64(i + 1))))
		assertDecimal(t, want.String(), b)
	}
}

func TestSaveTransactionTxFailureIsStepTagged(t *testing.T) {
	svc, db := newTestService(t)
	seedAccount(t, db, "100")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.SaveTransaction(ctx, testScope, Posting{AccountID: 1, Amount: dec("10"), Date: fixedClock()})

	var pe *PostingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StepTx, pe.Step)
	assert.ErrorIs(t, err, ErrLedgerTx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "100.00", accountBalance(t, db))
	assert.Equal(t, 0, countRows(t, db, "transactions"))
}
