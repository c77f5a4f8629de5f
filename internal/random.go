package internal

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const opaqueTokenSize = 32

// NewOpaqueToken returns a 256-bit random bearer value encoded as 64 hex
// characters. Used for rememberToken, verifyToken and session-token
// overwrite values.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewOTP returns a numeric one-time code of the given length. The first
// digit is drawn uniformly from 1-9, the rest uniformly from 0-9, so the
// code never carries a leading zero and no digit is favored.
func NewOTP(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	nine := big.NewInt(9)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		var (
			n   *big.Int
			err error
		)
		if i == 0 {
			n, err = rand.Int(rand.Reader, nine)
			if err != nil {
				return "", err
			}
			n.Add(n, big.NewInt(1))
		} else {
			n, err = rand.Int(rand.Reader, ten)
			if err != nil {
				return "", err
			}
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// TokensEqual compares two opaque bearer values in constant time.
func TokensEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
