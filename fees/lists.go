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
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// AllSections disables the section filter of the list builders.
const AllSections int64 = 0

type AllocationFilter struct {
	ClassID   int64
	SectionID int64 // AllSections for every section
	GroupID   int64
	BranchID  int64 // zero means the scope branch
}

// AllocationStudent is an enrolled student with the allocation id of the
// requested group, zero when the group is not allocated.
type AllocationStudent struct {
	StudentID    int64  `bun:"student_id" json:"student_id"`
	Roll         string `bun:"roll" json:"roll"`
	ClassID      int64  `bun:"class_id" json:"class_id"`
	SectionID    int64  `bun:"section_id" json:"section_id"`
	Photo        string `bun:"photo" json:"photo"`
	FirstName    string `bun:"first_name" json:"-"`
	LastName     string `bun:"last_name" json:"-"`
	FullName     string `bun:"-" json:"fullname"`
	Gender       string `bun:"gender" json:"gender"`
	RegisterNo   string `bun:"register_no" json:"register_no"`
	ParentID     int64  `bun:"parent_id" json:"parent_id"`
	Email        string `bun:"email" json:"email"`
	MobileNo     string `bun:"mobileno" json:"mobileno"`
	AllocationID int64  `bun:"allocation_id" json:"allocation_id"`
	GroupID      int64  `bun:"group_id" json:"group_id"`
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func (s *Service) GetStudentAllocationList(ctx context.Context, scope Scope, f AllocationFilter) ([]AllocationStudent, error) {
	branchID := f.BranchID
	if branchID == 0 {
		branchID = scope.BranchID
	}
	rows := make([]AllocationStudent, 0)
	q := s.db.NewSelect().
		TableExpr("enroll AS e").
		ColumnExpr("e.student_id, e.roll, e.class_id, e.section_id").
		ColumnExpr("s.photo, s.first_name, s.last_name, s.gender, s.register_no, s.parent_id, s.email, s.mobileno").
		ColumnExpr("COALESCE(fa.id, 0) AS allocation_id, COALESCE(fa.group_id, 0) AS group_id").
		Join("LEFT JOIN student AS s ON s.id = e.student_id").
		Join("LEFT JOIN fee_allocation AS fa ON fa.student_id = e.student_id AND fa.group_id = ? AND fa.session_id = ?",
			f.GroupID, scope.SessionID).
		Where("e.class_id = ?", f.ClassID).
		Where("e.branch_id = ?", branchID).
		Where("e.session_id = ?", scope.SessionID)
	if f.SectionID != AllSections {
		q = q.Where("e.section_id = ?", f.SectionID)
	}
	if err := q.OrderExpr("s.id ASC").Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("allocation list for class %d: %w", f.ClassID, err)
	}
	for i := range rows {
		rows[i].FullName = fullName(rows[i].FirstName, rows[i].LastName)
	}
	return rows, nil
}

// GetFeeGroups returns the names of the student's fee groups in the scope
// session.
func (s *Service) GetFeeGroups(ctx context.Context, scope Scope, studentID int64) ([]string, error) {
	groups, err := s.feeGroupsByStudent(ctx, scope, []int64{studentID})
	if err != nil {
		return nil, err
	}
	if names := groups[studentID]; names != nil {
		return names, nil
	}
	return []string{}, nil
}

func (s *Service) feeGroupsByStudent(ctx context.Context, scope Scope, studentIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}
	var rows []studentGroup
	err := s.db.NewSelect().
		TableExpr("fee_allocation AS fa").
		ColumnExpr("fa.student_id, g.name AS group_name").
		Join("JOIN fee_groups AS g ON g.id = fa.group_id").
		Where("fa.student_id IN (?)", bun.In(studentIDs)).
		Where("fa.session_id = ?", scope.SessionID).
		OrderExpr("fa.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("fee groups for %d students: %w", len(studentIDs), err)
	}
	for _, r := range rows {
		out[r.StudentID] = append(out[r.StudentID], r.GroupName)
	}
	return out, nil
}

// StudentRow is the enrollment header shared by the invoice list builders.
type StudentRow struct {
	StudentID   int64  `bun:"student_id" json:"student_id"`
	EnrollID    int64  `bun:"enroll_id" json:"enroll_id"`
	Roll        string `bun:"roll" json:"roll"`
	FirstName   string `bun:"first_name" json:"first_name"`
	LastName    string `bun:"last_name" json:"last_name"`
	RegisterNo  string `bun:"register_no" json:"register_no"`
	MobileNo    string `bun:"mobileno" json:"mobileno"`
	ClassName   string `bun:"class_name" json:"class_name"`
	SectionName string `bun:"section_name" json:"section_name"`
}

func (s *Service) enrolledStudents(ctx context.Context, scope Scope, ids []int64, classID, sectionID int64) ([]StudentRow, error) {
	rows := make([]StudentRow, 0, len(ids))
	q := s.db.NewSelect().
		TableExpr("enroll AS e").
		ColumnExpr("e.student_id, e.id AS enroll_id, e.roll").
		ColumnExpr("s.first_name, s.last_name, s.register_no, s.mobileno").
		ColumnExpr("c.name AS class_name, se.name AS section_name").
		Join("LEFT JOIN student AS s ON s.id = e.student_id").
		Join("LEFT JOIN class AS c ON c.id = e.class_id").
		Join("LEFT JOIN section AS se ON se.id = e.section_id").
		Where("e.student_id IN (?)", bun.In(ids)).
		Where("e.class_id = ?", classID).
		Where("e.session_id = ?", scope.SessionID)
	if sectionID != AllSections {
		q = q.Where("e.section_id = ?", sectionID)
	}
	if err := q.OrderExpr("e.roll ASC, e.id ASC").Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("enrolled students of class %d: %w", classID, err)
	}
	return rows, nil
}

type InvoiceListFilter struct {
	ClassID   int64
	SectionID int64
	BranchID  int64 // zero means the scope branch
}

type InvoiceListRow struct {
	StudentRow
	FeeGroups []string `json:"feegroup"`
}

// GetInvoiceList lists the allocated students of a class with their fee
// group names. A student with several groups appears once.
func (s *Service) GetInvoiceList(ctx context.Context, scope Scope, f InvoiceListFilter) ([]InvoiceListRow, error) {
	branchID := f.BranchID
	if branchID == 0 {
		branchID = scope.BranchID
	}
	var ids []int64
	q := s.db.NewSelect().
		Distinct().
		TableExpr("enroll AS e").
		ColumnExpr("e.student_id").
		Join("JOIN fee_allocation AS fa ON fa.student_id = e.student_id").
		Where("fa.branch_id = ?", branchID).
		Where("fa.session_id = ?", scope.SessionID).
		Where("e.class_id = ?", f.ClassID).
		Where("e.session_id = ?", scope.SessionID)
	if f.SectionID != AllSections {
		q = q.Where("e.section_id = ?", f.SectionID)
	}
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("invoice list ids for class %d: %w", f.ClassID, err)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []InvoiceListRow{}, nil
	}

	groups, err := s.feeGroupsByStudent(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	students, err := s.enrolledStudents(ctx, scope, ids, f.ClassID, f.SectionID)
	if err != nil {
		return nil, err
	}

	out := make([]InvoiceListRow, len(students))
	for i, st := range students {
		out[i] = InvoiceListRow{StudentRow: st, FeeGroups: []string{}}
	}
	byID := indexBy(out, func(r *InvoiceListRow) int64 { return r.StudentID })
	for id, names := range groups {
		if r, ok := byID[id]; ok {
			r.FeeGroups = names
		}
	}
	return out, nil
}

type DueInvoiceFilter struct {
	ClassID   int64
	SectionID int64
	GroupID   int64
	TypeID    int64
}

type DueInvoiceRow struct {
	StudentRow
	FullAmount    decimal.Decimal `json:"full_amount"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	FeeGroups     []string        `json:"feegroup"`
}

type catalogLine struct {
	FullAmount decimal.Decimal `bun:"full_amount"`
	DueDate    time.Time       `bun:"due_date"`
}

type typePayment struct {
	StudentID     int64           `bun:"student_id"`
	TotalAmount   decimal.Decimal `bun:"total_amount"`
	TotalDiscount decimal.Decimal `bun:"total_discount"`
}

// GetDueInvoiceList lists the students of a class allocated to a group,
// with the group's catalog amount for one fee type and what each student
// has paid against that type. It is empty when the group has no catalog line
// for the type.
func (s *Service) GetDueInvoiceList(ctx context.Context, scope Scope, f DueInvoiceFilter) ([]DueInvoiceRow, error) {
	var ids []int64
	q := s.db.NewSelect().
		Distinct().
		TableExpr("enroll AS e").
		ColumnExpr("e.student_id").
		Join("JOIN fee_allocation AS fa ON fa.student_id = e.student_id").
		Join("JOIN fee_groups_details AS gd ON gd.fee_groups_id = fa.group_id AND gd.fee_type_id = ?", f.TypeID).
		Where("fa.group_id = ?", f.GroupID).
		Where("e.class_id = ?", f.ClassID).
		Where("e.session_id = ?", scope.SessionID)
	if f.SectionID != AllSections {
		q = q.Where("e.section_id = ?", f.SectionID)
	}
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("due invoice ids for class %d: %w", f.ClassID, err)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []DueInvoiceRow{}, nil
	}

	var line catalogLine
	err := s.db.NewSelect().
		TableExpr("fee_groups_details").
		ColumnExpr("amount AS full_amount, due_date").
		Where("fee_groups_id = ?", f.GroupID).
		Where("fee_type_id = ?", f.TypeID).
		Limit(1).
		Scan(ctx, &line)
	if errors.Is(err, sql.ErrNoRows) {
		return []DueInvoiceRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog line group %d type %d: %w", f.GroupID, f.TypeID, err)
	}

	groups, err := s.feeGroupsByStudent(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	var payments []typePayment
	err = s.db.NewSelect().
		TableExpr("fee_payment_history AS h").
		ColumnExpr("fa.student_id").
		ColumnExpr("COALESCE(SUM(h.amount), 0) AS total_amount").
		ColumnExpr("COALESCE(SUM(h.discount), 0) AS total_discount").
		Join("JOIN fee_allocation AS fa ON fa.id = h.allocation_id").
		Where("fa.student_id IN (?)", bun.In(ids)).
		Where("h.type_id = ?", f.TypeID).
		GroupExpr("fa.student_id").
		Scan(ctx, &payments)
	if err != nil {
		return nil, fmt.Errorf("type %d payments: %w", f.TypeID, err)
	}
	students, err := s.enrolledStudents(ctx, scope, ids, f.ClassID, f.SectionID)
	if err != nil {
		return nil, err
	}

	out := make([]DueInvoiceRow, len(students))
	for i, st := range students {
		out[i] = DueInvoiceRow{
			StudentRow:    st,
			FullAmount:    round2(line.FullAmount),
			DueDate:       dateOnly(line.DueDate),
			TotalAmount:   decimal.Zero,
			TotalDiscount: decimal.Zero,
			FeeGroups:     []string{},
		}
	}
	byID := indexBy(out, func(r *DueInvoiceRow) int64 { return r.StudentID })
	for _, p := range payments {
		if r, ok := byID[p.StudentID]; ok {
			r.TotalAmount = round2(p.TotalAmount)
			r.TotalDiscount = round2(p.TotalDiscount)
		}
	}
	for id, names := range groups {
		if r, ok := byID[id]; ok {
			r.FeeGroups = names
		}
	}
	return out, nil
}

type DueReportFilter struct {
	ClassID   int64
	SectionID int64
}

type DueReportRow struct {
	AllocationID int64           `bun:"allocation_id" json:"allocation_id"`
	TotalFees    decimal.Decimal `bun:"total_fees" json:"total_fees"`
	StudentID    int64           `bun:"student_id" json:"student_id"`
	Roll         string          `bun:"roll" json:"roll"`
	FirstName    string          `bun:"first_name" json:"first_name"`
	LastName     string          `bun:"last_name" json:"last_name"`
	RegisterNo   string          `bun:"register_no" json:"register_no"`
	MobileNo     string          `bun:"mobileno" json:"mobileno"`
	ClassName    string          `bun:"class_name" json:"class_name"`
	SectionName  string          `bun:"section_name" json:"section_name"`
	Payment      PaymentTotals   `bun:"-" json:"payment"`
}

// GetDueReport totals the catalog fees of each student of a class for the
// scope session and attaches the student's payment totals, fetched for the
// whole class in one grouped query.
func (s *Service) GetDueReport(ctx context.Context, scope Scope, f DueReportFilter) ([]DueReportRow, error) {
	rows := make([]DueReportRow, 0)
	q := s.db.NewSelect().
		TableExpr("fee_allocation AS fa").
		ColumnExpr("MIN(fa.id) AS allocation_id").
		ColumnExpr("COALESCE(SUM(gd.amount), 0) AS total_fees").
		ColumnExpr("e.student_id, e.roll").
		ColumnExpr("s.first_name, s.last_name, s.register_no, s.mobileno").
		ColumnExpr("c.name AS class_name, se.name AS section_name").
		Join("LEFT JOIN fee_groups_details AS gd ON gd.fee_groups_id = fa.group_id").
		Join("JOIN enroll AS e ON e.student_id = fa.student_id AND e.session_id = fa.session_id").
		Join("LEFT JOIN student AS s ON s.id = e.student_id").
		Join("LEFT JOIN class AS c ON c.id = e.class_id").
		Join("LEFT JOIN section AS se ON se.id = e.section_id").
		Where("fa.session_id = ?", scope.SessionID).
		Where("e.class_id = ?", f.ClassID)
	if f.SectionID != AllSections {
		q = q.Where("e.section_id = ?", f.SectionID)
	}
	err := q.
		GroupExpr("e.student_id, e.roll, s.first_name, s.last_name, s.register_no, s.mobileno, c.name, se.name").
		OrderExpr("e.roll ASC, e.student_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("due report for class %d: %w", f.ClassID, err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		rows[i].TotalFees = round2(rows[i].TotalFees)
		ids[i] = rows[i].StudentID
	}
	totals, err := s.paymentTotalsByStudent(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	byID := indexBy(rows, func(r *DueReportRow) int64 { return r.StudentID })
	for id, t := range totals {
		if r, ok := byID[id]; ok {
			r.Payment = t
		}
	}
	return rows, nil
}

// ReminderStudent is an allocated student with contact details and what has
// been paid against the reminded fee type.
type ReminderStudent struct {
	AllocationID     int64      `bun:"allocation_id" json:"allocation_id"`
	StudentID        int64      `bun:"student_id" json:"student_id"`
	FirstName        string     `bun:"first_name" json:"-"`
	LastName         string     `bun:"last_name" json:"-"`
	ChildName        string     `bun:"-" json:"child_name"`
	ChildMobileNo    string     `bun:"child_mobileno" json:"child_mobileno"`
	ParentID         int64      `bun:"parent_id" json:"parent_id"`
	GuardianName     string     `bun:"guardian_name" json:"guardian_name"`
	GuardianMobileNo string     `bun:"guardian_mobileno" json:"guardian_mobileno"`
	Payment          PaidTotals `bun:"-" json:"payment"`
}

type allocationTypeKey struct {
	allocationID int64
	typeID       int64
}

type allocationPayment struct {
	AllocationID  int64           `bun:"allocation_id"`
	TypeID        int64           `bun:"type_id"`
	TotalPaid     decimal.Decimal `bun:"total_paid"`
	TotalDiscount decimal.Decimal `bun:"total_discount"`
}

// GetStudentsListReminder lists the students allocated to a group in the
// scope session with their payments against one fee type. A zero group or
// type yields an empty list.
func (s *Service) GetStudentsListReminder(ctx context.Context, scope Scope, groupID, typeID int64) ([]ReminderStudent, error) {
	if groupID == 0 || typeID == 0 {
		return []ReminderStudent{}, nil
	}
	rows := make([]ReminderStudent, 0)
	err := s.db.NewSelect().
		TableExpr("fee_allocation AS a").
		ColumnExpr("a.id AS allocation_id, a.student_id").
		ColumnExpr("s.first_name, s.last_name, s.mobileno AS child_mobileno, s.parent_id").
		ColumnExpr("pr.name AS guardian_name, pr.mobileno AS guardian_mobileno").
		Join("JOIN student AS s ON s.id = a.student_id").
		Join("LEFT JOIN parent AS pr ON pr.id = s.parent_id").
		Where("a.group_id = ?", groupID).
		Where("a.session_id = ?", scope.SessionID).
		OrderExpr("a.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("reminder students for group %d: %w", groupID, err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = rows[i].AllocationID
	}
	var payments []allocationPayment
	err = s.db.NewSelect().
		TableExpr("fee_payment_history").
		ColumnExpr("allocation_id, type_id").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total_paid").
		ColumnExpr("COALESCE(SUM(discount), 0) AS total_discount").
		Where("allocation_id IN (?)", bun.In(ids)).
		Where("type_id = ?", typeID).
		GroupExpr("allocation_id, type_id").
		Scan(ctx, &payments)
	if err != nil {
		return nil, fmt.Errorf("reminder payments for group %d type %d: %w", groupID, typeID, err)
	}
	paid := make(map[allocationTypeKey]PaidTotals, len(payments))
	for _, p := range payments {
		paid[allocationTypeKey{p.AllocationID, p.TypeID}] = PaidTotals{round2(p.TotalPaid), round2(p.TotalDiscount)}
	}
	for i := range rows {
		rows[i].ChildName = fullName(rows[i].FirstName, rows[i].LastName)
		if p, ok := paid[allocationTypeKey{rows[i].AllocationID, typeID}]; ok {
			rows[i].Payment = p
		} else {
			rows[i].Payment = PaidTotals{TotalPaid: decimal.Zero, TotalDiscount: decimal.Zero}
		}
	}
	return rows, nil
}

// ReminderFeeLine is a catalog line due on a reminder date.
type ReminderFeeLine struct {
	ID          int64           `bun:"id" json:"id"`
	FeeGroupsID int64           `bun:"fee_groups_id" json:"fee_groups_id"`
	FeeTypeID   int64           `bun:"fee_type_id" json:"fee_type_id"`
	Amount      decimal.Decimal `bun:"amount" json:"amount"`
	DueDate     time.Time       `bun:"due_date" json:"due_date"`
	FeeTypeName string          `bun:"fee_type_name" json:"fee_type_name"`
	GroupName   string          `bun:"group_name" json:"group_name"`
}

// GetFeeReminderByDate returns the catalog lines of the branch's fee types
// that fall due on date.
func (s *Service) GetFeeReminderByDate(ctx context.Context, date time.Time, branchID int64) ([]ReminderFeeLine, error) {
	rows := make([]ReminderFeeLine, 0)
	err := s.db.NewSelect().
		TableExpr("fee_groups_details AS fgd").
		ColumnExpr("fgd.id, fgd.fee_groups_id, fgd.fee_type_id, fgd.amount, fgd.due_date").
		ColumnExpr("ft.name AS fee_type_name, fg.name AS group_name").
		Join("JOIN fees_type AS ft ON ft.id = fgd.fee_type_id").
		Join("LEFT JOIN fee_groups AS fg ON fg.id = fgd.fee_groups_id").
		Where("fgd.due_date = ?", dateOnly(date)).
		Where("ft.branch_id = ?", branchID).
		OrderExpr("fgd.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("fee reminders due %s: %w", date.Format(time.DateOnly), err)
	}
	return rows, nil
}
