package order

import (
	"crypto/rand"
	"io"
	"math/big"
	"regexp"
	"time"
)

const (
	numberPrefix   = "ORD"
	suffixLen      = 4
	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NumberPattern matches every generated order number.
var NumberPattern = regexp.MustCompile(`^ORD\d{6}[A-Z0-9]{4}$`)

// NewNumber builds ORD{YY}{MM}{DD} followed by four random base-36
// characters drawn from src.
func NewNumber(now time.Time, src io.Reader) (string, error) {
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, 0, len(numberPrefix)+6+suffixLen)
	buf = append(buf, numberPrefix...)
	buf = now.AppendFormat(buf, "060102")
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(src, max)
		if err != nil {
			return "", err
		}
		buf = append(buf, base36Alphabet[n.Int64()])
	}
	return string(buf), nil
}
