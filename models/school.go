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

type Student struct {
	bun.BaseModel `bun:"table:student,alias:s"`

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	RegisterNo     string `bun:"register_no,type:varchar(100)" json:"register_no"`
	FirstName      string `bun:"first_name,type:varchar(255),notnull" json:"first_name"`
	LastName       string `bun:"last_name,type:varchar(255)" json:"last_name"`
	Gender         string `bun:"gender,type:varchar(20)" json:"gender"`
	Email          string `bun:"email,type:varchar(255)" json:"email"`
	MobileNo       string `bun:"mobileno,type:varchar(50)" json:"mobileno"`
	Photo          string `bun:"photo,type:varchar(255)" json:"photo"`
	ParentID       int64  `bun:"parent_id" json:"parent_id"`
	CurrentAddress string `bun:"current_address,type:text" json:"current_address"`
}

type Parent struct {
	bun.BaseModel `bun:"table:parent,alias:pr"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,type:varchar(255),notnull" json:"name"`
	MobileNo string `bun:"mobileno,type:varchar(50)" json:"mobileno"`
}

// Enroll links a student to a class and section for one session.
type Enroll struct {
	bun.BaseModel `bun:"table:enroll,alias:e"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	StudentID int64  `bun:"student_id,notnull" json:"student_id"`
	ClassID   int64  `bun:"class_id,notnull" json:"class_id"`
	SectionID int64  `bun:"section_id,notnull" json:"section_id"`
	Roll      string `bun:"roll,type:varchar(20)" json:"roll"`
	SessionID int64  `bun:"session_id,notnull" json:"session_id"`
	BranchID  int64  `bun:"branch_id,notnull" json:"branch_id"`
}

type Class struct {
	bun.BaseModel `bun:"table:class,alias:c"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,type:varchar(255),notnull" json:"name"`
	BranchID int64  `bun:"branch_id" json:"branch_id"`
}

type Section struct {
	bun.BaseModel `bun:"table:section,alias:se"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,type:varchar(255),notnull" json:"name"`
}

type Branch struct {
	bun.BaseModel `bun:"table:branch,alias:b"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	Name       string `bun:"name,type:varchar(255),notnull" json:"name"`
	SchoolName string `bun:"school_name,type:varchar(255)" json:"school_name"`
	Email      string `bun:"email,type:varchar(255)" json:"email"`
	MobileNo   string `bun:"mobileno,type:varchar(50)" json:"mobileno"`
	Address    string `bun:"address,type:text" json:"address"`
}
