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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/notify"
	"github.com/tomoncle/feeledger/repository"
	"github.com/tomoncle/feeledger/utils"
	"github.com/uptrace/bun"
)

// DefaultVoucherHead is the income voucher head fee postings are booked on.
const DefaultVoucherHead = "Student Fees Collection"

// Scope carries the caller's academic session, branch and user.
type Scope struct {
	SessionID int64
	BranchID  int64
	UserID    int64
	// UserStamp is the display stamp written to collect_by columns.
	UserStamp string
}

// Service runs fee queries and writes on a bun database.
type Service struct {
	db           *bun.DB
	now          func() time.Time
	notifier     notify.Notifier
	log          *logrus.Logger
	validate     *validator.Validate
	voucherHead  string
	templateCode int

	feeTypes  repository.Repository[models.FeeType]
	reminders repository.Repository[models.FeeReminder]
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for fine calculation in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier sets the SMS sender called after a payment is recorded.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger replaces the FEES logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithVoucherHead names the income voucher head used for fee postings.
func WithVoucherHead(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.voucherHead = name
		}
	}
}

// WithPaymentTemplate sets the SMS template code used after AddFees.
func WithPaymentTemplate(code int) Option {
	return func(s *Service) {
		if code > 0 {
			s.templateCode = code
		}
	}
}

// NewService returns a Service on db. Without options it uses time.Now, a
// no-op notifier and the default voucher head.
func NewService(db *bun.DB, opts ...Option) *Service {
	s := &Service{
		db:           db,
		now:          time.Now,
		notifier:     notify.Nop{},
		validate:     validator.New(),
		voucherHead:  DefaultVoucherHead,
		templateCode: notify.TemplatePaymentConfirmation,
		feeTypes:     repository.NewRepository[models.FeeType](db),
		reminders:    repository.NewRepository[models.FeeReminder](db),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = utils.NewLogger("FEES")
	}
	return s
}

// today is the clock's calendar date, in the clock's own location.
func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

// dateOnly keeps the calendar date of t as seen in t's location and returns
// it at UTC midnight, the form DATE columns are written and read in.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// wallClock is t's local date and time of day re-tagged as UTC, so it can be
// compared with dates returned by dateOnly.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
