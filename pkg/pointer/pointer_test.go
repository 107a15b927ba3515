// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/rentwise/pkg/pointer"
)

func TestPointerHelpers(t *testing.T) {
	assert.Equal(t, "bob", *pointer.To("bob"))
	assert.Equal(t, "", pointer.Val[string](nil))
	assert.Equal(t, 3, pointer.Val(pointer.To(3)))
	assert.Nil(t, pointer.NilIfZero(""))
	assert.Equal(t, "bob", *pointer.NilIfZero("bob"))
}
