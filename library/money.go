package library

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Money is an amount in cents. Balances may go negative (credit).
type Money int64

// OverdueFine is charged per overdue item for every day past its loan period.
const OverdueFine Money = 10

var ErrInvalidMoney = errors.New("invalid amount")

// MaxMoney is the largest amount ParseMoney accepts.
const MaxMoney Money = (math.MaxInt64-99)/100*100 + 99

// Abs returns the magnitude of m, saturating at math.MaxInt64.
func (m Money) Abs() Money {
	switch {
	case m == math.MinInt64:
		return math.MaxInt64
	case m < 0:
		return -m
	}
	return m
}

func (m Money) String() string {
	sign := ""
	a := uint64(m)
	if m < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}

// ParseMoney parses amounts like "3", "-1.5" or "0.10". At most two
// fractional digits are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, errors.Wrap(ErrInvalidMoney, "empty")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, errors.Wrap(ErrInvalidMoney, "sign without amount")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > 2) {
		return 0, errors.Wrapf(ErrInvalidMoney, "%q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil || units > uint64(MaxMoney/100) {
		return 0, errors.Wrapf(ErrInvalidMoney, "%q", s)
	}
	cents, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidMoney, "%q", s)
	}

	m := Money(units*100 + cents)
	if neg {
		m = -m
	}
	return m, nil
}
