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

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Fine rule kinds stored in fee_fine.fine_type. Any value other than
// FineTypeFixed is a percentage of the fee amount.
const (
	FineTypeFixed      = 1
	FineTypePercentage = 2
)

// Invoice states stored in fee_invoice.status.
const (
	InvoiceUnpaid     = 0
	InvoicePartlyPaid = 1
	InvoicePaid       = 2
)

type FeeType struct {
	bun.BaseModel `bun:"table:fees_type,alias:ft"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	BranchID    int64  `bun:"branch_id,notnull" json:"branch_id"`
	Name        string `bun:"name,type:varchar(255),notnull" json:"name"`
	FeeCode     string `bun:"fee_code,type:varchar(255)" json:"fee_code"`
	Description string `bun:"description,type:text" json:"description"`
}

type FeeGroup struct {
	bun.BaseModel `bun:"table:fee_groups,alias:fg"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,type:varchar(255),notnull" json:"name"`
	Description string `bun:"description,type:text" json:"description"`
	SessionID   int64  `bun:"session_id,notnull" json:"session_id"`
	BranchID    int64  `bun:"branch_id,notnull" json:"branch_id"`
}

// FeeGroupDetail is one catalog line: the amount and due date of a fee type
// inside a group.
type FeeGroupDetail struct {
	bun.BaseModel `bun:"table:fee_groups_details,alias:fgd"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	FeeGroupsID int64           `bun:"fee_groups_id,notnull" json:"fee_groups_id"`
	FeeTypeID   int64           `bun:"fee_type_id,notnull" json:"fee_type_id"`
	Amount      decimal.Decimal `bun:"amount,type:decimal(18,2),notnull" json:"amount"`
	DueDate     time.Time       `bun:"due_date,type:date" json:"due_date"`
}

type FeeFine struct {
	bun.BaseModel `bun:"table:fee_fine,alias:ff"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	GroupID      int64           `bun:"group_id,notnull" json:"group_id"`
	TypeID       int64           `bun:"type_id,notnull" json:"type_id"`
	FineValue    decimal.Decimal `bun:"fine_value,type:decimal(18,2),notnull" json:"fine_value"`
	FineType     int             `bun:"fine_type,notnull" json:"fine_type"`
	FeeFrequency int             `bun:"fee_frequency,notnull" json:"fee_frequency"`
	BranchID     int64           `bun:"branch_id,notnull" json:"branch_id"`
	SessionID    int64           `bun:"session_id,notnull" json:"session_id"`
}

// FeeAllocation binds a fee group to a student for a session.
type FeeAllocation struct {
	bun.BaseModel `bun:"table:fee_allocation,alias:fa"`

	ID        int64 `bun:"id,pk,autoincrement" json:"id"`
	StudentID int64 `bun:"student_id,notnull" json:"student_id"`
	GroupID   int64 `bun:"group_id,notnull" json:"group_id"`
	BranchID  int64 `bun:"branch_id,notnull" json:"branch_id"`
	SessionID int64 `bun:"session_id,notnull" json:"session_id"`
}

type FeePaymentHistory struct {
	bun.BaseModel `bun:"table:fee_payment_history,alias:h"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	AllocationID int64           `bun:"allocation_id,notnull" json:"allocation_id"`
	TypeID       int64           `bun:"type_id,notnull" json:"type_id"`
	CollectBy    string          `bun:"collect_by,type:varchar(255)" json:"collect_by"`
	Remarks      string          `bun:"remarks,type:text" json:"remarks"`
	Amount       decimal.Decimal `bun:"amount,type:decimal(18,2),notnull" json:"amount"`
	Discount     decimal.Decimal `bun:"discount,type:decimal(18,2),notnull" json:"discount"`
	Fine         decimal.Decimal `bun:"fine,type:decimal(18,2),notnull" json:"fine"`
	PayVia       int64           `bun:"pay_via" json:"pay_via"`
	Date         time.Time       `bun:"date,type:date" json:"date"`
}

type PaymentType struct {
	bun.BaseModel `bun:"table:payment_types,alias:pt"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,type:varchar(255),notnull" json:"name"`
}

type FeeReminder struct {
	bun.BaseModel `bun:"table:fees_reminder,alias:fr"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	Frequency string `bun:"frequency,type:varchar(20)" json:"frequency"`
	Days      int    `bun:"days" json:"days"`
	Student   bool   `bun:"student" json:"student"`
	Guardian  bool   `bun:"guardian" json:"guardian"`
	Message   string `bun:"message,type:text" json:"message"`
	BranchID  int64  `bun:"branch_id,notnull" json:"branch_id"`
}

type FeeInvoice struct {
	bun.BaseModel `bun:"table:fee_invoice,alias:fi"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	StudentID   int64           `bun:"student_id,notnull" json:"student_id"`
	SessionID   int64           `bun:"session_id,notnull" json:"session_id"`
	TotalAmount decimal.Decimal `bun:"total_amount,type:decimal(18,2),notnull" json:"total_amount"`
	TotalPaid   decimal.Decimal `bun:"total_paid,type:decimal(18,2),notnull" json:"total_paid"`
	TotalDue    decimal.Decimal `bun:"total_due,type:decimal(18,2),notnull" json:"total_due"`
	Status      int             `bun:"status,notnull" json:"status"`
}

// PaymentHistory is a payment recorded against a fee invoice.
type PaymentHistory struct {
	bun.BaseModel `bun:"table:payment_history,alias:ph"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	FeeInvoiceID int64           `bun:"fee_invoice_id,notnull" json:"fee_invoice_id"`
	CollectBy    string          `bun:"collect_by,type:varchar(255)" json:"collect_by"`
	Remarks      string          `bun:"remarks,type:text" json:"remarks"`
	Method       string          `bun:"method,type:varchar(50)" json:"method"`
	Amount       decimal.Decimal `bun:"amount,type:decimal(18,2),notnull" json:"amount"`
	Date         time.Time       `bun:"date,type:date" json:"date"`
	SessionID    int64           `bun:"session_id,notnull" json:"session_id"`
}
