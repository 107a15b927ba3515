// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// SessionTTL is how long a session token and its cookie stay valid.
	SessionTTL = 7 * 24 * time.Hour

	// RegistrationTicketTTL bounds the gap between verifying a code and
	// submitting the sign-up form.
	RegistrationTicketTTL = 30 * time.Minute

	// RegistrationTicketLength is the byte length of the random ticket.
	RegistrationTicketLength = 32

	// MaxFailedLogins is the number of wrong passwords tolerated per window.
	// The failure that reaches it locks the account.
	MaxFailedLogins = 5

	// FailedLoginWindow is the sliding window failed logins are counted in.
	FailedLoginWindow = 15 * time.Minute

	// LockoutDuration is how long an account stays locked.
	LockoutDuration = 15 * time.Minute

	// MinPasswordLength applies to registration, change and reset.
	MinPasswordLength = 8
)

// InvalidCredentialsMessage is the single message for unknown identifiers and
// wrong passwords alike.
const InvalidCredentialsMessage = "Invalid identifier or password"

// # Login Flow

// FlowState names a step of the sign-in flow. It is attached to log lines so
// a single login can be followed across handlers.
type FlowState string

const (
	FlowIdentifierSubmitted FlowState = "IDENTIFIER_SUBMITTED"
	FlowVerificationPending FlowState = "VERIFICATION_PENDING"
	FlowCodeVerified        FlowState = "CODE_VERIFIED"
	FlowPasswordRequired    FlowState = "PASSWORD_REQUIRED"
	FlowCredentialsChecked  FlowState = "CREDENTIALS_CHECKED"
	FlowSessionIssued       FlowState = "SESSION_ISSUED"
	FlowBlocked             FlowState = "BLOCKED"
	FlowAccountLocked       FlowState = "ACCOUNT_LOCKED"
)
