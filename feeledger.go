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
// Package feeledger wires the fee service, the image settings store and the
// reference catalogs onto one bun database.
//
//	cfg, _ := config.Load("config.yaml")
//	ledger, err := feeledger.Open(ctx, cfg)
//	...
//	defer ledger.Close()
//	status, err := ledger.Fees.GetInvoiceStatus(ctx, scope, studentID)
package feeledger

import (
	"context"
	"fmt"

	"github.com/tomoncle/feeledger/config"
	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/fees"
	"github.com/tomoncle/feeledger/images"
	"github.com/tomoncle/feeledger/models"
	"github.com/tomoncle/feeledger/notify"
	"github.com/tomoncle/feeledger/utils"
	"github.com/uptrace/bun"
)

type Ledger struct {
	DB     *bun.DB
	Fees   *fees.Service
	Images *images.Store

	FeeGroups      Catalog[models.FeeGroup]
	FeeGroupLines  Catalog[models.FeeGroupDetail]
	FeeFines       Catalog[models.FeeFine]
	FeeAllocations Catalog[models.FeeAllocation]
	FeeInvoices    Catalog[models.FeeInvoice]
	PaymentTypes   Catalog[models.PaymentType]
	Accounts       Catalog[models.Account]

	closeFn func() error
}

// New builds a ledger on an open database. Options are applied after the
// ones derived from cfg.
func New(db *bun.DB, cfg config.FeesConfig, opts ...fees.Option) *Ledger {
	all := []fees.Option{
		fees.WithVoucherHead(cfg.VoucherHead),
		fees.WithPaymentTemplate(cfg.SMSTemplateCode),
		fees.WithNotifier(notify.NewLogNotifier(utils.NewLogger("NOTIFY"))),
	}
	all = append(all, opts...)
	return &Ledger{
		DB:             db,
		Fees:           fees.NewService(db, all...),
		Images:         images.NewStore(db),
		FeeGroups:      NewCatalog[models.FeeGroup](db),
		FeeGroupLines:  NewCatalog[models.FeeGroupDetail](db),
		FeeFines:       NewCatalog[models.FeeFine](db),
		FeeAllocations: NewCatalog[models.FeeAllocation](db),
		FeeInvoices:    NewCatalog[models.FeeInvoice](db),
		PaymentTypes:   NewCatalog[models.PaymentType](db),
		Accounts:       NewCatalog[models.Account](db),
	}
}

// Open applies the logging config, initialises the global database and
// builds a ledger on it.
func Open(ctx context.Context, cfg *config.Config, opts ...fees.Option) (*Ledger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be empty")
	}
	cfg.ApplyLogging()
	db, err := database.InitDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	l := New(db, cfg.Fees, opts...)
	l.closeFn = database.CloseDB
	return l, nil
}

// Close releases the database when the ledger opened it.
func (l *Ledger) Close() error {
	if l.closeFn == nil {
		return nil
	}
	return l.closeFn()
}
