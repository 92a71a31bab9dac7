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
// Package notify defines the SMS notification collaborator the fee service
// calls after a payment is recorded.
package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/feeledger/utils"
)

// TemplatePaymentConfirmation is the SMS template code for a payment receipt.
const TemplatePaymentConfirmation = 2

// PaymentRecord is the structured payload handed to the SMS sender.
type PaymentRecord struct {
	FeeInvoiceID int64           `json:"fee_invoice_id"`
	StudentID    int64           `json:"student_id"`
	CollectBy    string          `json:"collect_by"`
	Remarks      string          `json:"remarks"`
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	SessionID    int64           `json:"session_id"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Notifier sends a templated message about a payment.
type Notifier interface {
	Notify(ctx context.Context, record PaymentRecord, templateCode int) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, record PaymentRecord, templateCode int) error

func (f NotifierFunc) Notify(ctx context.Context, record PaymentRecord, templateCode int) error {
	return f(ctx, record, templateCode)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, PaymentRecord, int) error { return nil }

// LogNotifier writes notifications to a logger instead of sending them.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	if log == nil {
		log = utils.NewLogger("NOTIFY")
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, record PaymentRecord, templateCode int) error {
	n.log.WithFields(logrus.Fields{
		"template":   templateCode,
		"invoice_id": record.FeeInvoiceID,
		"student_id": record.StudentID,
		"amount":     record.Amount.StringFixed(2),
		"method":     record.Method,
	}).Info("payment notification")
	return nil
}
