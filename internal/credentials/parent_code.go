package credentials

import (
	"crypto/rand"
	"math/big"
)

// ParentCodeLength is the number of characters in a generated parent code
const ParentCodeLength = 8

// parentCodeChars is the alphabet of generated parent codes
const parentCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateParentCode generates a random 8-character code of upper-case letters and digits.
// Uniqueness is the caller's concern.
func GenerateParentCode() (string, error) {
	return randomString(parentCodeChars, ParentCodeLength)
}

// randomString builds a string of n characters drawn uniformly from alphabet
func randomString(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[num.Int64()]
	}

	return string(out), nil
}
