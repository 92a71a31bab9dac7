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

// AllPaymentMethods disables the pay_via filter of GetStuPaymentHistory.
const AllPaymentMethods int64 = 0

// PaymentHistoryFilter selects payments dated in [Start, End] for students
// enrolled in the branch during the scope session. Zero ids disable their
// filter.
type PaymentHistoryFilter struct {
	ClassID   int64
	SectionID int64
	PayVia    int64
	Start     time.Time
	End       time.Time
	BranchID  int64
	OnlyFine  bool
}

type PaymentReportFilter struct {
	ClassID   int64
	SectionID int64
	StudentID int64
	TypeID    int64
	Start     time.Time
	End       time.Time
	BranchID  int64
}

// StudentPaymentRow is a payment with the student, class and section it
// was collected from.
type StudentPaymentRow struct {
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
	StudentID    int64           `bun:"student_id" json:"student_id"`
	FirstName    string          `bun:"first_name" json:"first_name"`
	LastName     string          `bun:"last_name" json:"last_name"`
	RegisterNo   string          `bun:"register_no" json:"register_no"`
	ClassName    string          `bun:"class_name" json:"class_name"`
	SectionName  string          `bun:"section_name" json:"section_name"`
}

// studentPayments is the shared base of the payment history and report
// queries. Every join is to-one per history row, so the rows come back in a
// single statement.
func (s *Service) studentPayments(scope Scope, branchID int64, start, end time.Time) *bun.SelectQuery {
	if branchID == 0 {
		branchID = scope.BranchID
	}
	return s.db.NewSelect().
		TableExpr("fee_payment_history AS h").
		ColumnExpr(historyColumns).
		ColumnExpr("e.student_id, s.first_name, s.last_name, s.register_no").
		ColumnExpr("c.name AS class_name, se.name AS section_name").
		Join("LEFT JOIN fees_type AS t ON t.id = h.type_id").
		Join("LEFT JOIN payment_types AS pt ON pt.id = h.pay_via").
		Join("JOIN fee_allocation AS fa ON fa.id = h.allocation_id").
		Join("JOIN enroll AS e ON e.student_id = fa.student_id").
		Join("JOIN student AS s ON s.id = e.student_id").
		Join("LEFT JOIN class AS c ON c.id = e.class_id").
		Join("LEFT JOIN section AS se ON se.id = e.section_id").
		Where("h.date >= ?", dateOnly(start)).
		Where("h.date <= ?", dateOnly(end)).
		Where("e.branch_id = ?", branchID).
		Where("e.session_id = ?", scope.SessionID)
}

func (s *Service) GetStuPaymentHistory(ctx context.Context, scope Scope, f PaymentHistoryFilter) ([]StudentPaymentRow, error) {
	q := s.studentPayments(scope, f.BranchID, f.Start, f.End)
	if f.ClassID != 0 {
		q = q.Where("e.class_id = ?", f.ClassID)
	}
	if f.SectionID != AllSections {
		q = q.Where("e.section_id = ?", f.SectionID)
	}
	if f.PayVia != AllPaymentMethods {
		q = q.Where("h.pay_via = ?", f.PayVia)
	}
	if f.OnlyFine {
		q = q.Where("h.fine > 0")
	}
	rows := make([]StudentPaymentRow, 0)
	if err := q.OrderExpr("h.id ASC").Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("payment history %s..%s: %w",
			f.Start.Format(time.DateOnly), f.End.Format(time.DateOnly), err)
	}
	return rows, nil
}

func (s *Service) GetStuPaymentReport(ctx context.Context, scope Scope, f PaymentReportFilter) ([]StudentPaymentRow, error) {
	q := s.studentPayments(scope, f.BranchID, f.Start, f.End)
	if f.ClassID != 0 {
		q = q.Where("e.class_id = ?", f.ClassID)
	}
	if f.SectionID != AllSections {
		q = q.Where("e.section_id = ?", f.SectionID)
	}
	if f.StudentID != 0 {
		q = q.Where("fa.student_id = ?", f.StudentID)
	}
	if f.TypeID != 0 {
		q = q.Where("h.type_id = ?", f.TypeID)
	}
	rows := make([]StudentPaymentRow, 0)
	if err := q.OrderExpr("h.id ASC").Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("payment report %s..%s: %w",
			f.Start.Format(time.DateOnly), f.End.Format(time.DateOnly), err)
	}
	return rows, nil
}
