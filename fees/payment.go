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
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/notify"
	"github.com/uptrace/bun"
)

// FeePayment is a payment collected against a fee invoice.
type FeePayment struct {
	StudentID int64           `json:"student_id"`
	Amount    decimal.Decimal `json:"amount"`
	Remarks   string          `json:"remarks"`
	Method    string          `json:"method"`
}

// AddFees records a payment against invoiceID and moves the invoice totals
// by exactly the paid amount. A payment that is not positive or exceeds the
// remaining due is rejected with ErrPaymentRejected and nothing is written.
// The notifier runs after commit; its failure is only logged.
func (s *Service) AddFees(ctx context.Context, scope Scope, invoiceID int64, p FeePayment) error {
	record := notify.PaymentRecord{
		FeeInvoiceID: invoiceID,
		StudentID:    p.StudentID,
		CollectBy:    scope.UserStamp,
		Remarks:      p.Remarks,
		Method:       p.Method,
		Amount:       p.Amount,
		Date:         s.today(),
		SessionID:    scope.SessionID,
	}

	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx bun.Tx) error {
		var due decimal.Decimal
		err := tx.NewSelect().
			TableExpr("fee_invoice").
			ColumnExpr("total_due").
			Where("id = ?", invoiceID).
			Scan(ctx, &due)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			due = decimal.Zero
		case err != nil:
			return fmt.Errorf("read invoice %d: %w", invoiceID, err)
		}
		if !p.Amount.IsPositive() || p.Amount.GreaterThan(due) {
			return fmt.Errorf("%w: amount %s, due %s", ErrPaymentRejected, p.Amount.StringFixed(2), due.StringFixed(2))
		}

		history := &models.PaymentHistory{
			FeeInvoiceID: invoiceID,
			CollectBy:    record.CollectBy,
			Remarks:      record.Remarks,
			Method:       record.Method,
			Amount:       p.Amount,
			Date:         record.Date,
			SessionID:    record.SessionID,
		}
		if _, err := tx.NewInsert().Model(history).Exec(ctx); err != nil {
			return fmt.Errorf("insert payment for invoice %d: %w", invoiceID, err)
		}

		status := models.InvoicePartlyPaid
		if due.LessThanOrEqual(p.Amount) {
			status = models.InvoicePaid
		}
		_, err = tx.NewUpdate().
			TableExpr("fee_invoice").
			Set("status = ?", status).
			Set("total_paid = total_paid + ?", p.Amount).
			Set("total_due = total_due - ?", p.Amount).
			Where("id = ?", invoiceID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update invoice %d: %w", invoiceID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	record.Timestamp = s.now()
	if err := s.notifier.Notify(ctx, record, s.templateCode); err != nil {
		s.log.WithFields(logrus.Fields{
			"invoice_id": invoiceID,
			"student_id": p.StudentID,
			"template":   s.templateCode,
		}).WithError(err).Warn("payment confirmation not sent")
	}
	return nil
}

// DepositCheck is a deposit about to be collected for one fee type of an
// allocation. An invalid Amount means no amount was entered.
type DepositCheck struct {
	AllocationID int64
	TypeID       int64
	Amount       decimal.NullDecimal
	Discount     decimal.Decimal
}

// DepositAmountVerify rejects a deposit whose amount plus discount exceeds
// the remaining balance. It writes nothing.
func (s *Service) DepositAmountVerify(ctx context.Context, c DepositCheck) error {
	if !c.Amount.Valid {
		return nil
	}
	b, err := s.GetBalance(ctx, c.AllocationID, c.TypeID)
	if err != nil {
		return err
	}
	if b.Balance.LessThan(c.Amount.Decimal.Add(c.Discount)) {
		return ErrDepositExceedsBalance
	}
	return nil
}
