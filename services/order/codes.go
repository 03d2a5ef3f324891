package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Alphabet for human-typeable codes: uppercase without the characters
// people misread in a bank-transfer memo (I, L, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// How many times code minting retries after a uniqueness collision.
const maxCodeAttempts = 5

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// newOrderCode mints a candidate order code, e.g. ORD250830K7QF.
func newOrderCode(t time.Time) (string, error) {
	tail, err := randomCode(4)
	if err != nil {
		return "", err
	}
	return "ORD" + t.Format("060102") + tail, nil
}

// newPaymentReference mints a candidate bank-transfer memo, e.g.
// PAY250830W3NRVT. Longer tail than the order code: it is the sole
// signal staff use to match a deposit, so collisions are costlier.
func newPaymentReference(t time.Time) (string, error) {
	tail, err := randomCode(6)
	if err != nil {
		return "", err
	}
	return "PAY" + t.Format("060102") + tail, nil
}
