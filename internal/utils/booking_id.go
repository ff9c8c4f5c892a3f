package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	bookingIDPrefix    = "BK"
	bookingIDSuffixLen = 8
	base36             = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewBookingID returns a public booking reference of the form
// BK<unix millis><8 random base-36 chars>.  Uniqueness is ultimately
// enforced by the bookings.booking_id unique key; callers retry on a
// duplicate.
func NewBookingID(now time.Time) (string, error) {
	var b strings.Builder
	b.Grow(len(bookingIDPrefix) + 13 + bookingIDSuffixLen)
	b.WriteString(bookingIDPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < bookingIDSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String(), nil
}
