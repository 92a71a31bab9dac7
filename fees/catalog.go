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
	"strings"

	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/types"
)

// FeeTypeInput creates a fee type when ID is zero and updates it otherwise.
type FeeTypeInput struct {
	ID          int64  `json:"type_id"`
	Name        string `json:"type_name" validate:"required,max=255"`
	Description string `json:"description"`
}

// FeeCode derives the code stored next to a fee type name.
func FeeCode(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// TypeSave stores a fee type in the scope branch and returns its id.
func (s *Service) TypeSave(ctx context.Context, scope Scope, in FeeTypeInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, err
	}
	ft := &models.FeeType{
		ID:          in.ID,
		BranchID:    scope.BranchID,
		Name:        in.Name,
		FeeCode:     FeeCode(in.Name),
		Description: in.Description,
	}
	if in.ID == 0 {
		if err := s.feeTypes.Create(ctx, ft); err != nil {
			return 0, fmt.Errorf("insert fee type %q: %w", in.Name, err)
		}
		return ft.ID, nil
	}
	if err := s.feeTypes.Update(ctx, ft); err != nil {
		return 0, fmt.Errorf("update fee type %d: %w", in.ID, err)
	}
	return ft.ID, nil
}

// ListFeeTypes pages through the fee types of the scope branch ordered by id.
func (s *Service) ListFeeTypes(ctx context.Context, scope Scope, page, size int) (*types.Pagination[models.FeeType], error) {
	filter := types.NewQueryFilter("branch_id = ?", scope.BranchID)
	return s.feeTypes.Page(ctx, types.NewPageRequest(page, size, filter, []string{"id ASC"}))
}

type ReminderInput struct {
	ID        int64  `json:"reminder_id"`
	Frequency string `json:"frequency" validate:"required,max=20"`
	Days      int    `json:"days" validate:"gte=0"`
	Student   bool   `json:"chk_student"`
	Guardian  bool   `json:"chk_guardian"`
	Message   string `json:"message" validate:"required"`
	BranchID  int64  `json:"branch_id" validate:"required,gt=0"`
}

// ReminderSave inserts a reminder rule when ID is zero and updates it
// otherwise. It returns the rule id.
func (s *Service) ReminderSave(ctx context.Context, in ReminderInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, err
	}
	r := &models.FeeReminder{
		ID:        in.ID,
		Frequency: in.Frequency,
		Days:      in.Days,
		Student:   in.Student,
		Guardian:  in.Guardian,
		Message:   in.Message,
		BranchID:  in.BranchID,
	}
	if in.ID == 0 {
		if err := s.reminders.Create(ctx, r); err != nil {
			return 0, fmt.Errorf("insert fee reminder: %w", err)
		}
		return r.ID, nil
	}
	if err := s.reminders.Update(ctx, r); err != nil {
		return 0, fmt.Errorf("update fee reminder %d: %w", in.ID, err)
	}
	return r.ID, nil
}
