// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table         string
	ID            string
	Email         string
	Phone         string
	Username      string
	Password      string
	FullName      string
	Role          string
	EmailVerified string
	PhoneVerified string
	IsActive      string
	LockedUntil   string
	LastLoginAt   string
	CreatedAt     string
	UpdatedAt     string
	DeletedAt     string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:         "users.account",
	ID:            "id",
	Email:         "email",
	Phone:         "phone",
	Username:      "username",
	Password:      "passwordhash",
	FullName:      "fullname",
	Role:          "role",
	EmailVerified: "emailverified",
	PhoneVerified: "phoneverified",
	IsActive:      "isactive",
	LockedUntil:   "lockeduntil",
	LastLoginAt:   "lastloginat",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
	DeletedAt:     "deletedat",
}

// Columns returns the columns hydrated into an account entity, in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Phone, t.Username, t.Password, t.FullName, t.Role,
		t.EmailVerified, t.PhoneVerified, t.IsActive, t.LockedUntil,
		t.LastLoginAt, t.CreatedAt, t.UpdatedAt,
	}
}
