package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// JoinCodeAlphabet excludes I, O, 0 and 1.
const JoinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// JoinCodeLength is the canonical length of a generated join code.
const JoinCodeLength = 6

// NormalizeJoinCode trims and uppercases a join code before lookup or storage.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCanonicalJoinCode reports whether code is a normalized 6-char code over JoinCodeAlphabet.
func IsCanonicalJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(JoinCodeAlphabet, r) {
			return false
		}
	}
	return true
}

// NewJoinCode draws a random canonical join code.
func NewJoinCode() (string, error) {
	max := big.NewInt(int64(len(JoinCodeAlphabet)))
	var b strings.Builder
	b.Grow(JoinCodeLength)
	for i := 0; i < JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(JoinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
