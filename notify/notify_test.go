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
package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	n := NewLogNotifier(l)
	err := n.Notify(context.Background(), PaymentRecord{
		FeeInvoiceID: 9,
		StudentID:    4,
		Method:       "cash",
		Amount:       decimal.RequireFromString("12.5"),
	}, TemplatePaymentConfirmation)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "payment notification")
	assert.Contains(t, out, "amount=12.50")
	assert.Contains(t, out, "template=2")
	assert.Contains(t, out, "invoice_id=9")
}

func TestNotifierFunc(t *testing.T) {
	var got PaymentRecord
	var code int
	n := NotifierFunc(func(_ context.Context, r PaymentRecord, c int) error {
		got, code = r, c
		return nil
	})
	require.NoError(t, n.Notify(context.Background(), PaymentRecord{StudentID: 3}, 7))
	assert.Equal(t, int64(3), got.StudentID)
	assert.Equal(t, 7, code)
	assert.NoError(t, Nop{}.Notify(context.Background(), got, code))
}
