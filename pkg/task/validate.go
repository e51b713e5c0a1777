package task

// ValidateTitle checks the title field of a create/update request and
// returns the ordered list of violations (empty means valid). The value is
// untyped because the check also has to catch non-string JSON values.
func ValidateTitle(title any) []string {
	var violations []string

	s, isString := title.(string)
	if title == nil || (isString && len(s) < 3) {
		violations = append(violations, "The title needs to be 3 characters at least")
	}
	if title != nil && !isString {
		violations = append(violations, "Invalid title value")
	}

	return violations
}
