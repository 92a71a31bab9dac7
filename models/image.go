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

import "github.com/uptrace/bun"

// ImageSetting maps a branding image key to its stored path.
type ImageSetting struct {
	bun.BaseModel `bun:"table:image_settings,alias:img"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	ImageKey  string `bun:"image_key,type:varchar(100),notnull,unique" json:"image_key"`
	ImagePath string `bun:"image_path,type:varchar(255)" json:"image_path"`
}
