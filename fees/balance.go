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

	"github.com/shopspring/decimal"
)

// Balance is what remains owed on one fee type of an allocation.
type Balance struct {
	Balance decimal.Decimal `json:"balance"`
	Fine    decimal.Decimal `json:"fine"`
}

type balanceRow struct {
	TotalAmount decimal.NullDecimal `bun:"total_amount"`
	TotalPaid   decimal.Decimal     `bun:"total_paid"`
	TotalFine   decimal.Decimal     `bun:"total_fine"`
}

// GetBalance returns max(0, catalog amount - paid - discounts) and the fines
// collected so far, read in a single statement.
func (s *Service) GetBalance(ctx context.Context, allocationID, typeID int64) (Balance, error) {
	amount := s.db.NewSelect().
		TableExpr("fee_groups_details AS gd").
		ColumnExpr("gd.amount").
		Join("JOIN fee_allocation AS fa ON gd.fee_groups_id = fa.group_id").
		Where("fa.id = ?", allocationID).
		Where("gd.fee_type_id = ?", typeID).
		Limit(1)
	paid := s.db.NewSelect().
		TableExpr("fee_payment_history").
		ColumnExpr("COALESCE(SUM(amount + discount), 0)").
		Where("allocation_id = ?", allocationID).
		Where("type_id = ?", typeID)
	fine := s.db.NewSelect().
		TableExpr("fee_payment_history").
		ColumnExpr("COALESCE(SUM(fine), 0)").
		Where("allocation_id = ?", allocationID).
		Where("type_id = ?", typeID)

	var row balanceRow
	err := s.db.NewSelect().
		ColumnExpr("(?) AS total_amount", amount).
		ColumnExpr("(?) AS total_paid", paid).
		ColumnExpr("(?) AS total_fine", fine).
		Scan(ctx, &row)
	if err != nil {
		return Balance{}, fmt.Errorf("balance for allocation %d type %d: %w", allocationID, typeID, err)
	}

	remaining := row.TotalAmount.Decimal.Sub(row.TotalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Balance{Balance: round2(remaining), Fine: round2(row.TotalFine)}, nil
}
