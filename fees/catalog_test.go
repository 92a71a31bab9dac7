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
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/feeledger/models"
)

func TestFeeCode(t *testing.T) {
	assert.Equal(t, "exam-fee", FeeCode("Exam Fee"))
	assert.Equal(t, "late--fee", FeeCode("Late  Fee"))
	assert.Equal(t, "tuition", FeeCode("TUITION"))
}

func TestTypeSave(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	id, err := svc.TypeSave(ctx, testScope, FeeTypeInput{Name: "Exam Fee", Description: "end of term"})
	require.NoError(t, err)
	require.NotZero(t, id)

	var ft models.FeeType
	require.NoError(t, db.NewSelect().Model(&ft).Where("id = ?", id).Scan(ctx))
	assert.Equal(t, "exam-fee", ft.FeeCode)
	assert.Equal(t, int64(1), ft.BranchID)

	got, err := svc.TypeSave(ctx, testScope, FeeTypeInput{ID: id, Name: "Exam Fee Term Two"})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	ft = models.FeeType{}
	require.NoError(t, db.NewSelect().Model(&ft).Where("id = ?", id).Scan(ctx))
	assert.Equal(t, "Exam Fee Term Two", ft.Name)
	assert.Equal(t, "exam-fee-term-two", ft.FeeCode)
	assert.Empty(t, ft.Description)
	assert.Equal(t, 1, countRows(t, db, "fees_type"))

	_, err = svc.TypeSave(ctx, testScope, FeeTypeInput{})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "Name", verrs[0].Field())
	assert.Equal(t, 1, countRows(t, db, "fees_type"))
}

func TestListFeeTypes(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	seedSchool(t, db)
	mustInsert(t, db,
		&models.FeeType{ID: 3, BranchID: 1, Name: "Exam Fee", FeeCode: "exam-fee"},
		&models.FeeType{ID: 4, BranchID: 2, Name: "Bus Fee", FeeCode: "bus-fee"},
	)

	page, err := svc.ListFeeTypes(ctx, testScope, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Tuition Fee", page.Items[0].Name)

	page, err = svc.ListFeeTypes(ctx, testScope, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Exam Fee", page.Items[0].Name)
}

func TestReminderSave(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	in := ReminderInput{Frequency: "before", Days: 3, Student: true, Message: "Fees due soon", BranchID: 1}
	id, err := svc.ReminderSave(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, id)

	in.ID = id
	in.Guardian = true
	in.Days = 5
	_, err = svc.ReminderSave(ctx, in)
	require.NoError(t, err)

	var r models.FeeReminder
	require.NoError(t, db.NewSelect().Model(&r).Where("id = ?", id).Scan(ctx))
	assert.Equal(t, 5, r.Days)
	assert.True(t, r.Student)
	assert.True(t, r.Guardian)
	assert.Equal(t, 1, countRows(t, db, "fees_reminder"))

	_, err = svc.ReminderSave(ctx, ReminderInput{Frequency: "after", Days: -1, Message: "x", BranchID: 1})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "Days", verrs[0].Field())
}
