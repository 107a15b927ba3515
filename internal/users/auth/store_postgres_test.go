// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/rentwise/internal/platform/database/schema"
)

var placeholder = regexp.MustCompile(`\$\d+`)

func TestPostgresQueries_UseSchemaTables(t *testing.T) {
	accountQueries := map[string]string{
		"select by id":    fmt.Sprintf(selectAccountQuery, schema.UserAccount.ID),
		"insert":          insertAccountQuery,
		"update password": updatePasswordQuery,
		"mark verified":   fmt.Sprintf(markVerifiedQuery, schema.UserAccount.EmailVerified, schema.UserAccount.Email),
		"touch login":     touchLastLoginQuery,
		"lock":            lockAccountQuery,
		"unlock":          unlockAccountQuery,
	}
	for name, query := range accountQueries {
		assert.Contains(t, query, schema.UserAccount.Table, name)
		assert.NotContains(t, query, "%", name)
	}

	sessionQueries := map[string]string{
		"insert":            insertSessionQuery,
		"deactivate device": deactivateDeviceQuery,
		"select by token":   selectSessionByTokenQuery,
		"list active":       listActiveSessionsQuery,
		"deactivate token":  deactivateTokenQuery,
		"revoke":            revokeSessionQuery,
		"revoke all":        revokeAllSessionsQuery,
		"revoke others":     revokeOtherSessionsQuery,
	}
	for name, query := range sessionQueries {
		assert.Contains(t, query, schema.UserSession.Table, name)
		assert.NotContains(t, query, "%", name)
	}
}

func TestPostgresQueries_InsertsBindEveryColumn(t *testing.T) {
	assert.Len(t, placeholder.FindAllString(insertAccountQuery, -1), len(schema.UserAccount.Columns()))
	assert.Len(t, placeholder.FindAllString(insertSessionQuery, -1), len(schema.UserSession.Columns()))
}

func TestPostgresQueries_LookupsSkipDeletedAccounts(t *testing.T) {
	query := fmt.Sprintf(selectAccountQuery, schema.UserAccount.Username)

	assert.Contains(t, query, "WHERE "+schema.UserAccount.Username+" = $1")
	assert.Contains(t, query, schema.UserAccount.DeletedAt+" IS NULL")
}
