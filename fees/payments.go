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
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Deposit totals the payment history of one fee type of an allocation.
type Deposit struct {
	TotalAmount   decimal.Decimal `bun:"total_amount" json:"total_amount"`
	TotalDiscount decimal.Decimal `bun:"total_discount" json:"total_discount"`
	TotalFine     decimal.Decimal `bun:"total_fine" json:"total_fine"`
}

func (s *Service) GetStudentFeeDeposit(ctx context.Context, allocationID, typeID int64) (Deposit, error) {
	var d Deposit
	err := s.db.NewSelect().
		TableExpr("fee_payment_history").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total_amount").
		ColumnExpr("COALESCE(SUM(discount), 0) AS total_discount").
		ColumnExpr("COALESCE(SUM(fine), 0) AS total_fine").
		Where("allocation_id = ?", allocationID).
		Where("type_id = ?", typeID).
		Scan(ctx, &d)
	if err != nil {
		return Deposit{}, fmt.Errorf("deposit for allocation %d type %d: %w", allocationID, typeID, err)
	}
	return Deposit{round2(d.TotalAmount), round2(d.TotalDiscount), round2(d.TotalFine)}, nil
}

// PaidTotals sums amounts and discounts.
type PaidTotals struct {
	TotalPaid     decimal.Decimal `bun:"total_paid" json:"total_paid"`
	TotalDiscount decimal.Decimal `bun:"total_discount" json:"total_discount"`
}

// PaymentTotals sums amounts, discounts and fines.
type PaymentTotals struct {
	TotalPaid     decimal.Decimal `bun:"total_paid" json:"total_paid"`
	TotalDiscount decimal.Decimal `bun:"total_discount" json:"total_discount"`
	TotalFine     decimal.Decimal `bun:"total_fine" json:"total_fine"`
}

func (s *Service) GetPaymentDetailsByTypeID(ctx context.Context, allocationID, typeID int64) (PaidTotals, error) {
	var t PaidTotals
	err := s.db.NewSelect().
		TableExpr("fee_payment_history").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total_paid").
		ColumnExpr("COALESCE(SUM(discount), 0) AS total_discount").
		Where("allocation_id = ?", allocationID).
		Where("type_id = ?", typeID).
		Scan(ctx, &t)
	if err != nil {
		return PaidTotals{}, fmt.Errorf("paid totals for allocation %d type %d: %w", allocationID, typeID, err)
	}
	return PaidTotals{round2(t.TotalPaid), round2(t.TotalDiscount)}, nil
}

// GetPaymentDetails totals the payments of every allocation of a student,
// across sessions.
func (s *Service) GetPaymentDetails(ctx context.Context, studentID int64) (PaymentTotals, error) {
	totals, err := s.paymentTotalsByStudent(ctx, []int64{studentID})
	if err != nil {
		return PaymentTotals{}, err
	}
	return totals[studentID], nil
}

type studentPaymentTotals struct {
	StudentID     int64           `bun:"student_id"`
	TotalPaid     decimal.Decimal `bun:"total_paid"`
	TotalDiscount decimal.Decimal `bun:"total_discount"`
	TotalFine     decimal.Decimal `bun:"total_fine"`
}

// paymentTotalsByStudent runs one grouped query for a set of students.
// Students without payments map to zero totals.
func (s *Service) paymentTotalsByStudent(ctx context.Context, studentIDs []int64) (map[int64]PaymentTotals, error) {
	out := make(map[int64]PaymentTotals, len(studentIDs))
	for _, id := range studentIDs {
		out[id] = PaymentTotals{TotalPaid: decimal.Zero, TotalDiscount: decimal.Zero, TotalFine: decimal.Zero}
	}
	if len(studentIDs) == 0 {
		return out, nil
	}
	var rows []studentPaymentTotals
	err := s.db.NewSelect().
		TableExpr("fee_allocation AS fa").
		ColumnExpr("fa.student_id").
		ColumnExpr("COALESCE(SUM(h.amount), 0) AS total_paid").
		ColumnExpr("COALESCE(SUM(h.discount), 0) AS total_discount").
		ColumnExpr("COALESCE(SUM(h.fine), 0) AS total_fine").
		Join("LEFT JOIN fee_payment_history AS h ON h.allocation_id = fa.id").
		Where("fa.student_id IN (?)", bun.In(studentIDs)).
		GroupExpr("fa.student_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("payment totals for %d students: %w", len(studentIDs), err)
	}
	for _, r := range rows {
		out[r.StudentID] = PaymentTotals{
			TotalPaid:     round2(r.TotalPaid),
			TotalDiscount: round2(r.TotalDiscount),
			TotalFine:     round2(r.TotalFine),
		}
	}
	return out, nil
}

// PaymentHistoryRow is a fee_payment_history row with its fee type and
// payment method names.
type PaymentHistoryRow struct {
	ID           int64           `bun:"id" json:"id"`
	AllocationID int64           `bun:"allocation_id" json:"allocation_id"`
	TypeID       int64           `bun:"type_id" json:"type_id"`
	CollectBy    string          `bun:"collect_by" json:"collect_by"`
	Remarks      string          `bun:"remarks" json:"remarks"`
	Amount       decimal.Decimal `bun:"amount" json:"amount"`
	Discount     decimal.Decimal `bun:"discount" json:"discount"`
	Fine         decimal.Decimal `bun:"fine" json:"fine"`
	PayVia       int64           `bun:"pay_via" json:"pay_via"`
	Date         time.Time       `bun:"date" json:"date"`
	Name         string          `bun:"name" json:"name"`
	FeeCode      string          `bun:"fee_code" json:"fee_code"`
	PayViaName   string          `bun:"payvia" json:"payvia"`
}

const historyColumns = "h.id, h.allocation_id, h.type_id, h.collect_by, h.remarks, " +
	"h.amount, h.discount, h.fine, h.pay_via, h.date, " +
	"t.name, t.fee_code, pt.name AS payvia"

func (s *Service) GetPaymentHistory(ctx context.Context, allocationID int64) ([]PaymentHistoryRow, error) {
	rows := make([]PaymentHistoryRow, 0)
	err := s.db.NewSelect().
		TableExpr("fee_payment_history AS h").
		ColumnExpr(historyColumns).
		Join("LEFT JOIN fees_type AS t ON t.id = h.type_id").
		Join("LEFT JOIN payment_types AS pt ON pt.id = h.pay_via").
		Where("h.allocation_id = ?", allocationID).
		OrderExpr("h.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("payment history for allocation %d: %w", allocationID, err)
	}
	return rows, nil
}
