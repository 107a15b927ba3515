// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table        string
	ID           string
	UserID       string
	SessionToken string
	DeviceName   string
	DeviceType   string
	UserAgent    string
	IPAddress    string
	IsActive     string
	CreatedAt    string
	ExpiresAt    string
	RevokedAt    string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:        "users.session",
	ID:           "id",
	UserID:       "userid",
	SessionToken: "sessiontoken",
	DeviceName:   "devicename",
	DeviceType:   "devicetype",
	UserAgent:    "useragent",
	IPAddress:    "ipaddress",
	IsActive:     "isactive",
	CreatedAt:    "createdat",
	ExpiresAt:    "expiresat",
	RevokedAt:    "revokedat",
}

// Columns returns all standard column names, in scan order.
func (t UserSessionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.SessionToken, t.DeviceName, t.DeviceType, t.UserAgent,
		t.IPAddress, t.IsActive, t.CreatedAt, t.ExpiresAt, t.RevokedAt,
	}
}
