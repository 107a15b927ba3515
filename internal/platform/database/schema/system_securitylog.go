// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemSecurityLogTable represents the 'system.securitylog' table
type SystemSecurityLogTable struct {
	Table     string
	ID        string
	UserID    string
	Action    string
	Status    string
	Detail    string
	IPAddress string
	CreatedAt string
}

// SystemSecurityLog is the schema definition for system.securitylog
var SystemSecurityLog = SystemSecurityLogTable{
	Table:     "system.securitylog",
	ID:        "id",
	UserID:    "userid",
	Action:    "action",
	Status:    "status",
	Detail:    "detail",
	IPAddress: "ipaddress",
	CreatedAt: "createdat",
}

// Columns returns all standard column names, in scan order.
func (t SystemSecurityLogTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Action, t.Status, t.Detail, t.IPAddress, t.CreatedAt,
	}
}
