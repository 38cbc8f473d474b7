package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

// order numbers avoid 0/O and 1/I so they survive being read over the phone
const orderNumberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
const orderNumberSuffixLen = 6

// NewOrderNumber builds the human-facing order identifier, e.g.
// ORD-20250815-K7M2QX. It is distinct from the row's UUID primary key; the
// unique index on order_number backstops the (unlikely) collision.
func NewOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, orderNumberSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	suffix := make([]byte, orderNumberSuffixLen)
	for i, b := range buf {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
