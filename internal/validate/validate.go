package validate

import (
	"regexp"
	"strconv"
	"strings"

	"ledgerbook/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^[0-9 +()-]{6,20}$`)
	reColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Email is optional; an empty value passes.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Phone is optional; an empty value passes.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || rePhone.MatchString(s)
}

// Color accepts an optional #RRGGBB value.
func Color(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || reColor.MatchString(s)
}

// ID parses a positive record id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// Qty parses an order or restock quantity.
func Qty(n int) bool { return n >= 1 && n <= 10000 }

func Direction(s string) (domain.Direction, bool) {
	d := domain.Direction(strings.ToUpper(strings.TrimSpace(s)))
	return d, d.Valid()
}

func OrderStatus(s string) (domain.OrderStatus, bool) {
	st := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}
