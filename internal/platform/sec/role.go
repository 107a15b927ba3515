// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Owns properties and manages bookings for them
	RoleLandlord UserRole = "landlord"

	// Default role for renters and their family members
	RoleTenant UserRole = "tenant"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// DashboardPath returns the client route a role lands on after login.
func (r UserRole) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleLandlord:
		return "/landlord/dashboard"
	default:
		return "/tenant/dashboard"
	}
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleLandlord:
		return 20
	case RoleTenant:
		return 10
	default:
		return 0
	}
}
