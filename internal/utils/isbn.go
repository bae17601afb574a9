package utils

// ValidISBN reports whether s looks like an ISBN-10 or ISBN-13: only digits
// and separators ('-' or ' '), ending in a digit, with exactly 10 or 13
// digits in total.  Check digits are not verified.
func ValidISBN(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '-' || ch == ' ':
		default:
			return false
		}
	}
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		return false
	}
	return digits == 10 || digits == 13
}
