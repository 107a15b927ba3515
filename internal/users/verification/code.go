// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package verification

import (
	"fmt"
	"math/rand/v2"
)

// Code length bounds accepted by [NewCode].
const (
	MinCodeLength = 4
	MaxCodeLength = 6
)

// codeAlphabet never contains zero.
const codeAlphabet = "123456789"

// CodeGenerator produces a fresh code of the requested length.
type CodeGenerator func(length int) string

// NewCode returns length random digits drawn from 1-9.
func NewCode(length int) string {
	buffer := make([]byte, length)
	for i := range buffer {
		buffer[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(buffer)
}

// ValidateCodeLength rejects lengths outside [MinCodeLength, MaxCodeLength].
func ValidateCodeLength(length int) error {
	if length < MinCodeLength || length > MaxCodeLength {
		return fmt.Errorf("verification code length must be between %d and %d, got %d",
			MinCodeLength, MaxCodeLength, length)
	}
	return nil
}
