package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/motivatem3/server/internal/util"
)

const codeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a uniformly random 6-digit decimal code. Leading
// zeros are kept.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// HashCode is the one-way digest stored in place of the code.
func HashCode(code string) string {
	return util.HashToken(code)
}
