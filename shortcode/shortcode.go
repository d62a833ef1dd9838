package shortcode

import (
	"crypto/rand"
	"math/big"
)

const (
	minLength = 6
	maxLength = 8
	charset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Generate returns a random code of 6 to 8 characters drawn uniformly from
// [A-Za-z0-9]. It does not probe for collisions; the store's uniqueness
// constraint on shortCode rejects the rare duplicate at insert time.
func Generate() (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(int64(maxLength-minLength+1)))
	if err != nil {
		return "", err
	}
	length := minLength + int(span.Int64())

	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
