// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserVerificationTable represents the 'users.verification' table
type UserVerificationTable struct {
	Table      string
	ID         string
	Identifier string
	Kind       string
	Purpose    string
	Code       string
	ExpiresAt  string
	LastSentAt string
	Attempts   string
	Failures   string
	IsVerified string
	CreatedAt  string
	UpdatedAt  string
}

// UserVerification is the schema definition for users.verification
var UserVerification = UserVerificationTable{
	Table:      "users.verification",
	ID:         "id",
	Identifier: "identifier",
	Kind:       "kind",
	Purpose:    "purpose",
	Code:       "code",
	ExpiresAt:  "expiresat",
	LastSentAt: "lastsentat",
	Attempts:   "attempts",
	Failures:   "failedattempts",
	IsVerified: "isverified",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
}

// Columns returns all standard column names, in scan order.
func (t UserVerificationTable) Columns() []string {
	return []string{
		t.ID, t.Identifier, t.Kind, t.Purpose, t.Code, t.ExpiresAt,
		t.LastSentAt, t.Attempts, t.Failures, t.IsVerified, t.CreatedAt, t.UpdatedAt,
	}
}
