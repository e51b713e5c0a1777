package kernel

import "time"

// UserID is the opaque subject identifier issued by the identity authority.
type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// CallerIdentity is the verified subject bound to a single request by the
// access guard. It is rebuilt from the credential on every request and never
// persisted.
type CallerIdentity struct {
	UserID   UserID    `json:"uid"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"iat"`
}

// IsValid reports whether the identity carries a usable subject.
func (c *CallerIdentity) IsValid() bool {
	return c != nil && !c.UserID.IsEmpty()
}

// CallerLocalsKey is the Fiber locals key the access guard stores the
// CallerIdentity under.
const CallerLocalsKey = "caller"
