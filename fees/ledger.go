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
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Posting is fee income to book on an account.
type Posting struct {
	AccountID int64
	Amount    decimal.Decimal
	Date      time.Time
}

// SaveTransaction books a posting on the ledger and returns the voucher id.
// The account balance is read and rewritten in the same transaction as the
// transaction and voucher rows; on failure nothing is kept and the returned
// error is a *PostingError naming the failed step.
func (s *Service) SaveTransaction(ctx context.Context, scope Scope, p Posting) (int64, error) {
	var voucherID int64
	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx bun.Tx) error {
		balance, err := readBalance(ctx, tx, p.AccountID)
		if err != nil {
			return err
		}
		newBalance := balance.Add(p.Amount)

		headID, err := s.voucherHeadID(ctx, tx, scope.BranchID)
		if err != nil {
			return postingErr(StepVoucherHead, ErrVoucherHead, err)
		}

		now := s.now()
		date := dateOnly(p.Date)
		entry := &models.Transaction{
			AccountID:     p.AccountID,
			VoucherHeadID: headID,
			Type:          models.EntryIncome,
			Amount:        p.Amount,
			Date:          date,
			Balance:       newBalance,
			PertainTo:     models.PertainToVoucher,
			BranchID:      scope.BranchID,
			CreatedAt:     now,
			CreatedBy:     scope.UserID,
		}
		if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
			return postingErr(StepTransaction, ErrTransactionInsert, err)
		}
		if entry.ID == 0 {
			return postingErr(StepTransaction, ErrTransactionInsert, nil)
		}

		res, err := tx.NewUpdate().
			TableExpr("accounts").
			Set("balance = ?", newBalance).
			Set("updated_at = ?", now).
			Where("id = ?", p.AccountID).
			Exec(ctx)
		if err != nil {
			return postingErr(StepBalance, ErrBalanceUpdate, err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return postingErr(StepBalance, ErrBalanceUpdate, err)
		}

		v := &models.Voucher{
			TransactionsID: entry.ID,
			VoucherHeadID:  headID,
			Type:           models.EntryIncome,
			Amount:         p.Amount,
			Date:           date,
			BranchID:       scope.BranchID,
			CreatedAt:      now,
			CreatedBy:      scope.UserID,
		}
		if _, err := tx.NewInsert().Model(v).Exec(ctx); err != nil {
			return postingErr(StepVoucher, ErrVoucherInsert, err)
		}
		if v.ID == 0 {
			return postingErr(StepVoucher, ErrVoucherInsert, nil)
		}
		voucherID = v.ID
		return nil
	})
	if err != nil {
		var pe *PostingError
		if !errors.As(err, &pe) {
			pe = postingErr(StepTx, ErrLedgerTx, err)
			err = pe
		}
		fields := logrus.Fields{
			"account_id": p.AccountID,
			"amount":     p.Amount.StringFixed(2),
			"branch_id":  scope.BranchID,
			"step":       pe.Step,
		}
		s.log.WithFields(fields).WithError(err).Error("fee posting rolled back")
		return 0, err
	}
	return voucherID, nil
}

// readBalance locks the account row where the dialect supports it. SQLite
// serialises writers on its own.
func readBalance(ctx context.Context, tx bun.Tx, accountID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	q := tx.NewSelect().
		TableExpr("accounts").
		ColumnExpr("balance").
		Where("id = ?", accountID)
	if tx.Dialect().Name() != dialect.SQLite {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, postingErr(StepAccount, ErrInvalidAccount, nil)
	}
	if err != nil {
		return decimal.Zero, postingErr(StepAccount, ErrInvalidAccount, err)
	}
	return balance, nil
}

// voucherHeadID finds the branch's system income head for fee collection,
// creating it on first use.
func (s *Service) voucherHeadID(ctx context.Context, tx bun.Tx, branchID int64) (int64, error) {
	heads := repository.NewRepository[models.VoucherHead](tx)
	head, err := heads.First(ctx, "vh.name = ? AND vh.type = ? AND vh.system = ? AND vh.branch_id = ?",
		s.voucherHead, models.EntryIncome, 1, branchID)
	if err == nil {
		return head.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	head = &models.VoucherHead{
		Name:     s.voucherHead,
		Type:     models.EntryIncome,
		System:   1,
		BranchID: branchID,
	}
	if err := heads.Create(ctx, head); err != nil {
		return 0, err
	}
	return head.ID, nil
}
