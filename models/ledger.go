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

const (
	EntryIncome  = "income"
	EntryExpense = "expense"

	PertainToVoucher = "voucher"
)

type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:ac"`

	ID        int64           `bun:"id,pk,autoincrement" json:"id"`
	Name      string          `bun:"name,type:varchar(255),notnull" json:"name"`
	Number    string          `bun:"number,type:varchar(100)" json:"number"`
	Balance   decimal.Decimal `bun:"balance,type:decimal(18,2),notnull" json:"balance"`
	BranchID  int64           `bun:"branch_id,notnull" json:"branch_id"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// VoucherHead is a ledger category. System heads are created on demand and
// looked up by (name, type, system, branch_id).
type VoucherHead struct {
	bun.BaseModel `bun:"table:voucher_head,alias:vh"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,type:varchar(255),notnull" json:"name"`
	Type     string `bun:"type,type:varchar(20),notnull" json:"type"`
	System   int    `bun:"system,notnull" json:"system"`
	BranchID int64  `bun:"branch_id,notnull" json:"branch_id"`
}

// Transaction is one signed ledger movement; Balance is the account balance
// right after it.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:tr"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	AccountID     int64           `bun:"account_id,notnull" json:"account_id"`
	VoucherHeadID int64           `bun:"voucher_head_id,notnull" json:"voucher_head_id"`
	Type          string          `bun:"type,type:varchar(20),notnull" json:"type"`
	Amount        decimal.Decimal `bun:"amount,type:decimal(18,2),notnull" json:"amount"`
	Date          time.Time       `bun:"date,type:date" json:"date"`
	Balance       decimal.Decimal `bun:"balance,type:decimal(18,2),notnull" json:"balance"`
	PertainTo     string          `bun:"pertain_to,type:varchar(20)" json:"pertain_to"`
	BranchID      int64           `bun:"branch_id,notnull" json:"branch_id"`
	CreatedAt     time.Time       `bun:"created_at,notnull" json:"created_at"`
	CreatedBy     int64           `bun:"created_by" json:"created_by"`
}

type Voucher struct {
	bun.BaseModel `bun:"table:voucher,alias:v"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	TransactionsID int64           `bun:"transactions_id,notnull" json:"transactions_id"`
	VoucherHeadID  int64           `bun:"voucher_head_id,notnull" json:"voucher_head_id"`
	Type           string          `bun:"type,type:varchar(20),notnull" json:"type"`
	Amount         decimal.Decimal `bun:"amount,type:decimal(18,2),notnull" json:"amount"`
	Date           time.Time       `bun:"date,type:date" json:"date"`
	BranchID       int64           `bun:"branch_id,notnull" json:"branch_id"`
	CreatedAt      time.Time       `bun:"created_at,notnull" json:"created_at"`
	CreatedBy      int64           `bun:"created_by" json:"created_by"`
}
