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
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/models"
	"github.com/uptrace/bun"
)

var dbSeq atomic.Int64

var testScope = Scope{SessionID: 1, BranchID: 1, UserID: 7, UserStamp: "admin"}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
}

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "want %s, got %s", want, got.String())
}

// newTestDB opens a migrated in-memory database private to the test.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	m, err := database.OpenMemory(ctx, fmt.Sprintf("fees_test_%d", dbSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Disconnect() })
	return m.GetDB()
}

func newTestService(t *testing.T, opts ...Option) (*Service, *bun.DB) {
	t.Helper()
	db := newTestDB(t)
	all := append([]Option{WithClock(fixedClock)}, opts...)
	return NewService(db, all...), db
}

func mustInsert(t *testing.T, db bun.IDB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		_, err := db.NewInsert().Model(row).Exec(context.Background())
		require.NoError(t, err, "insert %T", row)
	}
}

func countRows(t *testing.T, db bun.IDB, table string) int {
	t.Helper()
	n, err := db.NewSelect().TableExpr(table).Count(context.Background())
	require.NoError(t, err)
	return n
}

// seedSchool loads one branch, one class with two sections and three
// students. John (1) holds the Term 1 and Sports groups, Jane (2) holds Term
// 1 and Sam (3) holds nothing.
//
//	Term 1: Tuition 1000 due 2025-03-10, Library 200 due 2025-04-01
//	Sports: Tuition 300 due 2025-03-20
//
// John paid 400 + 50 discount + 10 fine on tuition by cash, Jane paid 1000
// on tuition by card.
func seedSchool(t *testing.T, db bun.IDB) {
	t.Helper()
	mustInsert(t, db,
		&models.Branch{ID: 1, Name: "Main", SchoolName: "Green Valley School", Email: "office@gv.example", MobileNo: "555-0100", Address: "1 School Rd"},
		&models.Class{ID: 1, Name: "Grade 5", BranchID: 1},
		&models.Section{ID: 1, Name: "A"},
		&models.Section{ID: 2, Name: "B"},
		&models.Parent{ID: 1, Name: "Mary Doe", MobileNo: "555-0111"},
		&models.Student{ID: 1, RegisterNo: "R-001", FirstName: "John", LastName: "Doe", Gender: "male", Email: "john@gv.example", MobileNo: "555-0001", ParentID: 1, CurrentAddress: "2 Oak St"},
		&models.Student{ID: 2, RegisterNo: "R-002", FirstName: "Jane", LastName: "Roe", Gender: "female", MobileNo: "555-0002"},
		&models.Student{ID: 3, RegisterNo: "R-003", FirstName: "Sam", LastName: "", Gender: "male"},
		&models.Enroll{ID: 1, StudentID: 1, ClassID: 1, SectionID: 1, Roll: "01", SessionID: 1, BranchID: 1},
		&models.Enroll{ID: 2, StudentID: 2, ClassID: 1, SectionID: 1, Roll: "02", SessionID: 1, BranchID: 1},
		&models.Enroll{ID: 3, StudentID: 3, ClassID: 1, SectionID: 2, Roll: "03", SessionID: 1, BranchID: 1},
		&models.FeeType{ID: 1, BranchID: 1, Name: "Tuition Fee", FeeCode: "tuition-fee"},
		&models.FeeType{ID: 2, BranchID: 1, Name: "Library Fee", FeeCode: "library-fee"},
		&models.FeeGroup{ID: 1, Name: "Term 1", SessionID: 1, BranchID: 1},
		&models.FeeGroup{ID: 2, Name: "Sports", SessionID: 1, BranchID: 1},
		&models.FeeGroupDetail{ID: 1, FeeGroupsID: 1, FeeTypeID: 1, Amount: dec("1000"), DueDate: day(time.March, 10)},
		&models.FeeGroupDetail{ID: 2, FeeGroupsID: 1, FeeTypeID: 2, Amount: dec("200"), DueDate: day(time.April, 1)},
		&models.FeeGroupDetail{ID: 3, FeeGroupsID: 2, FeeTypeID: 1, Amount: dec("300"), DueDate: day(time.March, 20)},
		&models.FeeAllocation{ID: 1, StudentID: 1, GroupID: 1, BranchID: 1, SessionID: 1},
		&models.FeeAllocation{ID: 2, StudentID: 1, GroupID: 2, BranchID: 1, SessionID: 1},
		&models.FeeAllocation{ID: 3, StudentID: 2, GroupID: 1, BranchID: 1, SessionID: 1},
		&models.PaymentType{ID: 1, Name: "Cash"},
		&models.PaymentType{ID: 2, Name: "Card"},
		&models.FeePaymentHistory{ID: 1, AllocationID: 1, TypeID: 1, CollectBy: "admin", Amount: dec("400"), Discount: dec("50"), Fine: dec("10"), PayVia: 1, Date: day(time.March, 12)},
		&models.FeePaymentHistory{ID: 2, AllocationID: 3, TypeID: 1, CollectBy: "admin", Amount: dec("1000"), Discount: dec("0"), Fine: dec("0"), PayVia: 2, Date: day(time.March, 15)},
	)
}
