// Package security contains everything related to the security of user data
package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateCode returns a uniform 6-digit login code in [100000, 999999].
// The range excludes leading zeros by construction so no padding is needed.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// GenerateToken returns n random bytes hex-encoded, used for the
// link-based login tokens.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
