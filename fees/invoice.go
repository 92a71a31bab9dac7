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
	"github.com/tomoncle/feeledger/types"
	"github.com/uptrace/bun"
)

// InvoiceStatus classifies how much of a student's session fees is paid.
type InvoiceStatus int

const (
	InvoiceUnpaid InvoiceStatus = iota
	InvoicePartly
	InvoiceTotal
	InvoiceNoAllocation
)

var _ types.BaseEnum = InvoiceUnpaid

var invoiceStatusNames = map[InvoiceStatus][2]string{
	InvoiceUnpaid:       {"unpaid", "Unpaid"},
	InvoicePartly:       {"partly", "Partly paid"},
	InvoiceTotal:        {"total", "Fully paid"},
	InvoiceNoAllocation: {"no_allocation", "No fee allocated"},
}

func (s InvoiceStatus) IsValid() bool {
	_, ok := invoiceStatusNames[s]
	return ok
}

func (s InvoiceStatus) Number() int {
	if !s.IsValid() {
		return types.IllegalValue
	}
	return int(s)
}

func (s InvoiceStatus) Name() string {
	if n, ok := invoiceStatusNames[s]; ok {
		return n[0]
	}
	return types.IllegalName
}

func (s InvoiceStatus) String() string { return s.Name() }

func (s InvoiceStatus) Desc() string {
	if n, ok := invoiceStatusNames[s]; ok {
		return n[1]
	}
	return types.IllegalDesc
}

func (s InvoiceStatus) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}

func (s *InvoiceStatus) UnmarshalText(b []byte) error {
	v, ok := types.ParseEnum(string(b), InvoiceUnpaid, InvoicePartly, InvoiceTotal, InvoiceNoAllocation)
	if !ok {
		return fmt.Errorf("unknown invoice status %q", b)
	}
	*s = v
	return nil
}

// ClassifyInvoice applies the status rules to aggregated figures.
func ClassifyInvoice(allocations int, totalFees, totalPaid decimal.Decimal) InvoiceStatus {
	switch {
	case allocations == 0:
		return InvoiceNoAllocation
	case totalFees.IsPositive() && totalPaid.GreaterThanOrEqual(totalFees):
		return InvoiceTotal
	case totalPaid.IsPositive():
		return InvoicePartly
	default:
		return InvoiceUnpaid
	}
}

// InvoiceNumber left pads an allocation id with zeros to four digits. Longer
// ids are kept whole.
func InvoiceNumber(allocationID int64) string {
	return fmt.Sprintf("%04d", allocationID)
}

type InvoiceSummary struct {
	Status    InvoiceStatus `json:"status"`
	InvoiceNo string        `json:"invoice_no"`
}

type invoiceStatusRow struct {
	HasAllocation   int             `bun:"has_allocation"`
	TotalFees       decimal.Decimal `bun:"total_fees"`
	TotalPaid       decimal.Decimal `bun:"total_paid"`
	MinAllocationID sql.NullInt64   `bun:"min_allocation_id"`
}

// GetInvoiceStatus classifies a student's invoice for the scope session and
// derives its number from the lowest allocation id.
func (s *Service) GetInvoiceStatus(ctx context.Context, scope Scope, studentID int64) (InvoiceSummary, error) {
	count := s.db.NewSelect().
		TableExpr("fee_allocation").
		ColumnExpr("COUNT(*)").
		Where("student_id = ?", studentID).
		Where("session_id = ?", scope.SessionID)
	fees := s.db.NewSelect().
		TableExpr("fee_allocation AS fa").
		ColumnExpr("COALESCE(SUM(gd.amount), 0)").
		Join("JOIN fee_groups_details AS gd ON gd.fee_groups_id = fa.group_id").
		Where("fa.student_id = ?", studentID).
		Where("fa.session_id = ?", scope.SessionID)
	paid := s.db.NewSelect().
		TableExpr("fee_payment_history AS h").
		ColumnExpr("COALESCE(SUM(h.amount + h.discount), 0)").
		Join("JOIN fee_allocation AS a ON h.allocation_id = a.id").
		Where("a.student_id = ?", studentID).
		Where("a.session_id = ?", scope.SessionID)
	minID := s.db.NewSelect().
		TableExpr("fee_allocation").
		ColumnExpr("MIN(id)").
		Where("student_id = ?", studentID).
		Where("session_id = ?", scope.SessionID)

	var row invoiceStatusRow
	err := s.db.NewSelect().
		ColumnExpr("(?) AS has_allocation", count).
		ColumnExpr("(?) AS total_fees", fees).
		ColumnExpr("(?) AS total_paid", paid).
		ColumnExpr("(?) AS min_allocation_id", minID).
		Scan(ctx, &row)
	if err != nil {
		return InvoiceSummary{}, fmt.Errorf("invoice status for student %d: %w", studentID, err)
	}
	return InvoiceSummary{
		Status:    ClassifyInvoice(row.HasAllocation, row.TotalFees, row.TotalPaid),
		InvoiceNo: InvoiceNumber(row.MinAllocationID.Int64),
	}, nil
}

// InvoiceLine is one catalog line of an allocation.
type InvoiceLine struct {
	AllocationID int64           `bun:"allocation_id" json:"allocation_id"`
	Name         string          `bun:"name" json:"name"`
	Amount       decimal.Decimal `bun:"amount" json:"amount"`
	DueDate      bun.NullTime    `bun:"due_date" json:"due_date"`
	FeeTypeID    int64           `bun:"fee_type_id" json:"fee_type_id"`
}

func (s *Service) GetInvoiceDetails(ctx context.Context, scope Scope, studentID int64) ([]InvoiceLine, error) {
	lines := make([]InvoiceLine, 0)
	err := s.db.NewSelect().
		TableExpr("fee_allocation AS fa").
		ColumnExpr("fa.id AS allocation_id, ft.name").
		ColumnExpr("COALESCE(fgd.amount, 0) AS amount").
		ColumnExpr("fgd.due_date, fgd.fee_type_id").
		Join("LEFT JOIN fee_groups_details AS fgd ON fgd.fee_groups_id = fa.group_id").
		Join("LEFT JOIN fees_type AS ft ON ft.id = fgd.fee_type_id").
		Where("fa.student_id = ?", studentID).
		Where("fa.session_id = ?", scope.SessionID).
		OrderExpr("fa.id ASC, fgd.id ASC").
		Scan(ctx, &lines)
	if err != nil {
		return nil, fmt.Errorf("invoice details for student %d: %w", studentID, err)
	}
	return lines, nil
}

// InvoiceBasic is the student and school header printed on an invoice.
type InvoiceBasic struct {
	ID             int64  `bun:"id" json:"id"`
	BranchID       int64  `bun:"branch_id" json:"branch_id"`
	FirstName      string `bun:"first_name" json:"first_name"`
	LastName       string `bun:"last_name" json:"last_name"`
	StudentEmail   string `bun:"student_email" json:"student_email"`
	StudentAddress string `bun:"student_address" json:"student_address"`
	ClassName      string `bun:"class_name" json:"class_name"`
	SchoolName     string `bun:"school_name" json:"school_name"`
	SchoolEmail    string `bun:"school_email" json:"school_email"`
	SchoolMobileNo string `bun:"school_mobileno" json:"school_mobileno"`
	SchoolAddress  string `bun:"school_address" json:"school_address"`
}

// GetInvoiceBasic returns nil without error when the student has no
// enrollment.
func (s *Service) GetInvoiceBasic(ctx context.Context, studentID int64) (*InvoiceBasic, error) {
	basic := new(InvoiceBasic)
	err := s.db.NewSelect().
		TableExpr("enroll AS e").
		ColumnExpr("s.id, e.branch_id, s.first_name, s.last_name").
		ColumnExpr("s.email AS student_email, s.current_address AS student_address").
		ColumnExpr("c.name AS class_name").
		ColumnExpr("b.school_name, b.email AS school_email, b.mobileno AS school_mobileno, b.address AS school_address").
		Join("JOIN student AS s ON s.id = e.student_id").
		Join("LEFT JOIN class AS c ON c.id = e.class_id").
		Join("LEFT JOIN branch AS b ON b.id = e.branch_id").
		Where("e.student_id = ?", studentID).
		OrderExpr("e.id ASC").
		Limit(1).
		Scan(ctx, basic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invoice header for student %d: %w", studentID, err)
	}
	return basic, nil
}
