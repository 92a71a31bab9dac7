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
// Package fees implements the fee data-access surface of the school admin
// application: fine and balance figures, invoice status, list and report
// builders, fee type and reminder maintenance, payment recording and the
// ledger posting of fee income.
//
// Every operation that depends on the caller's session, branch or user takes
// an explicit Scope. Lookups that find nothing return zero values; only
// database failures and rejected writes are reported as errors.
package fees
