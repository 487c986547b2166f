package model

// Role is the closed set of permission levels a user can hold.  Roles form
// a total order (admin > manager > requester > user) and every route guard
// goes through the single AtLeast predicate instead of comparing against
// ad-hoc role lists.
type Role string

const (
    RoleUser      Role = "user"      // read-only account, cannot request equipment
    RoleRequester Role = "requester" // may create reservation requests
    RoleManager   Role = "manager"   // approves, rejects and returns reservations
    RoleAdmin     Role = "admin"     // full account and sector management
)

// roleLevels maps each role to its position in the order.  Unknown roles
// map to zero which ranks below every real role.
var roleLevels = map[Role]int{
    RoleUser:      1,
    RoleRequester: 2,
    RoleManager:   3,
    RoleAdmin:     4,
}

// ParseRole validates a raw role string.  The boolean is false for values
// outside the closed set.
func ParseRole(s string) (Role, bool) {
    r := Role(s)
    _, ok := roleLevels[r]
    return r, ok
}

// AtLeast reports whether r grants at least the permissions of min.
func (r Role) AtLeast(min Role) bool {
    return roleLevels[r] >= roleLevels[min] && roleLevels[r] > 0
}

// String returns the role as stored in the users table.
func (r Role) String() string { return string(r) }
