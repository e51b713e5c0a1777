package identity

// ValidatePassword checks the password field of a registration request and
// returns the ordered list of violations (empty means valid). The value is
// untyped because the check also has to catch non-string JSON values.
//
// The message mentions 6 characters while the check enforces 3. That mismatch
// is inherited behavior and kept on purpose; see DESIGN.md.
func ValidatePassword(password any) []string {
	var violations []string

	s, isString := password.(string)
	if password == nil || (isString && len(s) < 3) {
		violations = append(violations, "The password needs to be 6 characters at least")
	}
	if password != nil && !isString {
		violations = append(violations, "Invalid password value")
	}

	return violations
}
