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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/types"
)

func TestClassifyInvoice(t *testing.T) {
	assert.Equal(t, InvoiceNoAllocation, ClassifyInvoice(0, dec("0"), dec("0")))
	assert.Equal(t, InvoiceNoAllocation, ClassifyInvoice(0, dec("100"), dec("100")))
	assert.Equal(t, InvoiceUnpaid, ClassifyInvoice(1, dec("100"), dec("0")))
	assert.Equal(t, InvoicePartly, ClassifyInvoice(1, dec("100"), dec("99.99")))
	assert.Equal(t, InvoiceTotal, ClassifyInvoice(1, dec("100"), dec("100")))
	assert.Equal(t, InvoiceTotal, ClassifyInvoice(2, dec("100"), dec("120")))
	// nothing owed and nothing paid
	assert.Equal(t, InvoiceUnpaid, ClassifyInvoice(1, dec("0"), dec("0")))
	assert.Equal(t, InvoicePartly, ClassifyInvoice(1, dec("0"), dec("5")))
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "0007", InvoiceNumber(7))
	assert.Equal(t, "0042", InvoiceNumber(42))
	assert.Equal(t, "1234", InvoiceNumber(1234))
	assert.Equal(t, "12345", InvoiceNumber(12345))
}

func TestInvoiceStatusEnum(t *testing.T) {
	var _ types.BaseEnum = InvoiceTotal
	assert.Equal(t, "partly", InvoicePartly.Name())
	assert.Equal(t, "no_allocation", InvoiceNoAllocation.String())
	assert.Equal(t, 2, InvoiceTotal.Number())
	assert.False(t, InvoiceStatus(9).IsValid())
	assert.Equal(t, types.IllegalValue, InvoiceStatus(9).Number())
	assert.Equal(t, types.IllegalName, InvoiceStatus(9).Name())

	b, err := json.Marshal(InvoiceSummary{Status: InvoiceTotal, InvoiceNo: "0001"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"total","invoice_no":"0001"}`, string(b))

	var back InvoiceSummary
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Partly","invoice_no":"0002"}`), &back))
	assert.Equal(t, InvoicePartly, back.Status)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"overpaid"}`), &back))

	st, ok := types.EnumByNumber(3, InvoiceUnpaid, InvoicePartly, InvoiceTotal, InvoiceNoAllocation)
	assert.True(t, ok)
	assert.Equal(t, InvoiceNoAllocation, st)
	_, ok = types.EnumByNumber(7, InvoiceUnpaid, InvoiceTotal)
	assert.False(t, ok)
}

func TestGetInvoiceStatus(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)

	// John owes 1500 over two allocations and paid 450 with discount.
	got, err := svc.GetInvoiceStatus(ctx, testScope, 1)
	require.NoError(t, err)
	assert.Equal(t, InvoiceSummary{Status: InvoicePartly, InvoiceNo: "0001"}, got)

	got, err = svc.GetInvoiceStatus(ctx, testScope, 3)
	require.NoError(t, err)
	assert.Equal(t, InvoiceNoAllocation, got.Status)

	mustInsert(t, db, &models.FeeAllocation{ID: 4, StudentID: 3, GroupID: 2, BranchID: 1, SessionID: 1})
	got, err = svc.GetInvoiceStatus(ctx, testScope, 3)
	require.NoError(t, err)
	assert.Equal(t, InvoiceSummary{Status: InvoiceUnpaid, InvoiceNo: "0004"}, got)

	// Jane settles the library fee and reaches her 1200 total.
	mustInsert(t, db, &models.FeePaymentHistory{AllocationID: 3, TypeID: 2, Amount: dec("150"), Discount: dec("50"), Fine: dec("0"), PayVia: 1, Date: day(time.March, 18)})
	got, err = svc.GetInvoiceStatus(ctx, testScope, 2)
	require.NoError(t, err)
	assert.Equal(t, InvoiceSummary{Status: InvoiceTotal, InvoiceNo: "0003"}, got)

	other := testScope
	other.SessionID = 2
	got, err = svc.GetInvoiceStatus(ctx, other, 1)
	require.NoError(t, err)
	assert.Equal(t, InvoiceNoAllocation, got.Status)
}

func TestGetBalance(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)

	b, err := svc.GetBalance(ctx, 1, 1)
	require.NoError(t, err)
	assertDecimal(t, "550", b.Balance)
	assertDecimal(t, "10", b.Fine)

	b, err = svc.GetBalance(ctx, 1, 2)
	require.NoError(t, err)
	assertDecimal(t, "200", b.Balance)
	assertDecimal(t, "0", b.Fine)

	b, err = svc.GetBalance(ctx, 3, 1)
	require.NoError(t, err)
	assertDecimal(t, "0", b.Balance)

	// overpayment never yields a negative balance
	mustInsert(t, db, &models.FeePaymentHistory{AllocationID: 3, TypeID: 1, Amount: dec("100"), Discount: dec("0"), Fine: dec("0"), PayVia: 1, Date: day(time.March, 19)})
	b, err = svc.GetBalance(ctx, 3, 1)
	require.NoError(t, err)
	assertDecimal(t, "0", b.Balance)

	b, err = svc.GetBalance(ctx, 99, 1)
	require.NoError(t, err)
	assertDecimal(t, "0", b.Balance)
	assertDecimal(t, "0", b.Fine)
}

func TestGetInvoiceDetails(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)

	lines, err := svc.GetInvoiceDetails(ctx, testScope, 1)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, int64(1), lines[0].AllocationID)
	assert.Equal(t, "Tuition Fee", lines[0].Name)
	assertDecimal(t, "1000", lines[0].Amount)
	assert.True(t, lines[0].DueDate.Equal(day(time.March, 10)))
	assert.Equal(t, "Library Fee", lines[1].Name)
	assert.Equal(t, int64(2), lines[2].AllocationID)
	assertDecimal(t, "300", lines[2].Amount)

	lines, err = svc.GetInvoiceDetails(ctx, testScope, 3)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGetInvoiceBasic(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)

	basic, err := svc.GetInvoiceBasic(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, basic)
	assert.Equal(t, "John", basic.FirstName)
	assert.Equal(t, "2 Oak St", basic.StudentAddress)
	assert.Equal(t, "Grade 5", basic.ClassName)
	assert.Equal(t, "Green Valley School", basic.SchoolName)
	assert.Equal(t, "555-0100", basic.SchoolMobileNo)

	basic, err = svc.GetInvoiceBasic(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, basic)
}

func TestPaymentTotals(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)

	d, err := svc.GetStudentFeeDeposit(ctx, 1, 1)
	require.NoError(t, err)
	assertDecimal(t, "400", d.TotalAmount)
	assertDecimal(t, "50", d.TotalDiscount)
	assertDecimal(t, "10", d.TotalFine)

	paid, err := svc.GetPaymentDetailsByTypeID(ctx, 1, 1)
	require.NoError(t, err)
	assertDecimal(t, "400", paid.TotalPaid)
	assertDecimal(t, "50", paid.TotalDiscount)

	paid, err = svc.GetPaymentDetailsByTypeID(ctx, 1, 2)
	require.NoError(t, err)
	assertDecimal(t, "0", paid.TotalPaid)

	totals, err := svc.GetPaymentDetails(ctx, 1)
	require.NoError(t, err)
	assertDecimal(t, "400", totals.TotalPaid)
	assertDecimal(t, "50", totals.TotalDiscount)
	assertDecimal(t, "10", totals.TotalFine)

	totals, err = svc.GetPaymentDetails(ctx, 3)
	require.NoError(t, err)
	assertDecimal(t, "0", totals.TotalPaid)
	assertDecimal(t, "0", totals.TotalFine)
}

func TestGetPaymentHistory(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)
	mustInsert(t, db, &models.FeePaymentHistory{AllocationID: 1, TypeID: 2, Amount: dec("200"), Discount: dec("0"), Fine: dec("0"), PayVia: 2, Date: day(time.March, 19)})

	rows, err := svc.GetPaymentHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tuition Fee", rows[0].Name)
	assert.Equal(t, "tuition-fee", rows[0].FeeCode)
	assert.Equal(t, "Cash", rows[0].PayViaName)
	assertDecimal(t, "400", rows[0].Amount)
	assert.True(t, rows[0].Date.Equal(day(time.March, 12)))
	assert.Equal(t, "Library Fee", rows[1].Name)
	assert.Equal(t, "Card", rows[1].PayViaName)

	rows, err = svc.GetPaymentHistory(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
