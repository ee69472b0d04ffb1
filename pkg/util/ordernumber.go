package util

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	orderNumberPrefix   = "MSO"
	orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	orderNumberSuffix   = 6
)

// GenerateOrderNumber produces a human-readable order number in the form
// MSO-YYYYMMDD-XXXXXX where the suffix is 6 random base36 characters.
// There is no external counter; the caller relies on the unique index on
// order_number and retries on collision.
func GenerateOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, orderNumberSuffix)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("20060102"), string(buf)), nil
}
