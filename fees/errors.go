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
	"errors"
	"fmt"
)

var (
	// ErrPaymentRejected is returned by AddFees for a non-positive payment
	// or one larger than the invoice's remaining due.
	ErrPaymentRejected = errors.New("payment rejected")

	ErrDepositExceedsBalance = errors.New("Amount cannot be greater than the remaining.")
)

// Posting failures, wrapped in a *PostingError.
var (
	ErrInvalidAccount    = errors.New("invalid account selected")
	ErrVoucherHead       = errors.New("failed to create voucher head")
	ErrTransactionInsert = errors.New("failed to record transaction")
	ErrBalanceUpdate     = errors.New("failed to update account balance")
	ErrVoucherInsert     = errors.New("failed to create voucher")
	ErrLedgerTx          = errors.New("ledger transaction failed")
)

type PostingStep string

const (
	StepAccount     PostingStep = "account"
	StepVoucherHead PostingStep = "voucher_head"
	StepTransaction PostingStep = "transaction"
	StepBalance     PostingStep = "balance"
	StepVoucher     PostingStep = "voucher"
	// begin or commit of the enclosing database transaction
	StepTx PostingStep = "tx"
)

// PostingError reports the step at which SaveTransaction failed. The ledger
// transaction has been rolled back when it is returned.
type PostingError struct {
	Step PostingStep
	Err  error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("posting failed at %s: %v", e.Step, e.Err)
}

func (e *PostingError) Unwrap() error { return e.Err }

func postingErr(step PostingStep, sentinel, cause error) *PostingError {
	if cause == nil {
		return &PostingError{Step: step, Err: sentinel}
	}
	return &PostingError{Step: step, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}
