// Package validate holds the pure placement and naming rules for racks.
// Nothing in here touches the database; repositories call these checks
// before writing and reject the whole operation on failure.
package validate

// IsValidRackName reports whether s is a well-formed rack identifier:
// exactly two uppercase ASCII letters followed by exactly two decimal
// digits, e.g. "AE01". Lowercase, Unicode letters and any other length
// are rejected. Callers normalize to uppercase before validating.
func IsValidRackName(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	for i := 2; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
