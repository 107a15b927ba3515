// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, slice.Map([]int{1, 2, 3}, strconv.Itoa))
}

func TestMap_NilEncodesAsEmptyArray(t *testing.T) {
	mapped := slice.Map([]int(nil), strconv.Itoa)

	encoded, err := json.Marshal(mapped)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(encoded))
}
