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
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tomoncle/feeledger/models"
)

type fineRule struct {
	Amount       decimal.Decimal `bun:"amount"`
	DueDate      time.Time       `bun:"due_date"`
	FineValue    decimal.Decimal `bun:"fine_value"`
	FineType     int             `bun:"fine_type"`
	FeeFrequency int             `bun:"fee_frequency"`
}

// FineCalculation returns the late fine owed for a fee type of an
// allocation. It is zero when the fee is not yet overdue or no fine rule
// exists for the group, type and session.
func (s *Service) FineCalculation(ctx context.Context, scope Scope, allocationID, typeID int64) (decimal.Decimal, error) {
	var rule fineRule
	err := s.db.NewSelect().
		TableExpr("fee_allocation AS a").
		ColumnExpr("COALESCE(fd.amount, 0) AS amount").
		ColumnExpr("fd.due_date, f.fine_value, f.fine_type, f.fee_frequency").
		Join("LEFT JOIN fee_groups_details AS fd ON fd.fee_groups_id = a.group_id AND fd.fee_type_id = ?", typeID).
		Join("JOIN fee_fine AS f ON f.group_id = fd.fee_groups_id AND f.type_id = fd.fee_type_id AND f.session_id = ?", scope.SessionID).
		Where("a.id = ?", allocationID).
		Limit(1).
		Scan(ctx, &rule)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("fine rule for allocation %d type %d: %w", allocationID, typeID, err)
	}
	return computeFine(rule, s.now()), nil
}

// computeFine applies a fine rule at instant now. A fixed rule charges
// fine_value, any other rule charges fine_value percent of the fee amount.
// With a non-zero frequency the charge grows linearly with the overdue days
// (rounded to whole days) divided by the frequency.
func computeFine(r fineRule, now time.Time) decimal.Decimal {
	due := dateOnly(r.DueDate)
	if !due.Before(dateOnly(now)) {
		return decimal.Zero
	}
	fine := r.FineValue
	if r.FineType != models.FineTypeFixed {
		fine = r.Amount.Div(hundred).Mul(r.FineValue)
	}
	if r.FeeFrequency != 0 {
		overdue := math.Round(wallClock(now).Sub(due).Hours() / 24)
		fine = fine.Mul(decimal.NewFromFloat(overdue)).Div(decimal.NewFromInt(int64(r.FeeFrequency)))
	}
	return round2(fine)
}
