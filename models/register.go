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

package models

import "github.com/tomoncle/feeledger/database"

// Table creation order: reference data, catalog, allocations and payments,
// ledger, settings.
func init() {
	database.RegisterModel((*Branch)(nil), 10)
	database.RegisterModel((*Class)(nil), 10)
	database.RegisterModel((*Section)(nil), 10)
	database.RegisterModel((*Parent)(nil), 10)
	database.RegisterModel((*Student)(nil), 11)
	database.RegisterModel((*Enroll)(nil), 12)
	database.RegisterModel((*PaymentType)(nil), 10)

	database.RegisterModel((*FeeType)(nil), 20)
	database.RegisterModel((*FeeGroup)(nil), 20)
	database.RegisterModel((*FeeGroupDetail)(nil), 21)
	database.RegisterModel((*FeeFine)(nil), 21)
	database.RegisterModel((*FeeReminder)(nil), 20)

	database.RegisterModel((*FeeAllocation)(nil), 30)
	database.RegisterModel((*FeePaymentHistory)(nil), 31)
	database.RegisterModel((*FeeInvoice)(nil), 30)
	database.RegisterModel((*PaymentHistory)(nil), 31)

	database.RegisterModel((*Account)(nil), 40)
	database.RegisterModel((*VoucherHead)(nil), 40)
	database.RegisterModel((*Transaction)(nil), 41)
	database.RegisterModel((*Voucher)(nil), 42)

	database.RegisterModel((*ImageSetting)(nil), 50)
}
