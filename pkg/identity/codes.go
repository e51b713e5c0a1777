package identity

import "net/http"

// Authority error codes. The vocabulary is the provider's own; the core only
// ever matches on these strings and passes them through to clients verbatim.
const (
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeUserNotFound      = "auth/user-not-found"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeTooManyRequests   = "auth/too-many-requests"
)

// codeStatus is the static authority-code → HTTP status table. Several codes
// may share a status; a code missing here has no defined status and callers
// must apply their own fallback.
var codeStatus = map[string]int{
	CodeWrongPassword:     http.StatusBadRequest,
	CodeInvalidEmail:      http.StatusBadRequest,
	CodeInvalidCredential: http.StatusUnauthorized,
	CodeUserNotFound:      http.StatusNotFound,
	CodeEmailAlreadyInUse: http.StatusConflict,
	CodeTooManyRequests:   http.StatusTooManyRequests,
}

// HTTPStatusForCode looks up the HTTP status for an authority error code.
// The second return value is false for unregistered codes.
func HTTPStatusForCode(code string) (int, bool) {
	status, ok := codeStatus[code]
	return status, ok
}

// StatusOrInternal is the conservative lookup: an unregistered code maps to
// 500 instead of leaking an invalid status onto the wire.
func StatusOrInternal(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
