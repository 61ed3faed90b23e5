package authorization

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleInstructor UserRole = "instructor"
	RoleStudent    UserRole = "student"
)

var validRoles = map[UserRole]struct{}{
	RoleAdmin:      {},
	RoleInstructor: {},
	RoleStudent:    {},
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

func (r UserRole) Value() (driver.Value, error) {
	if r == "" {
		return string(RoleStudent), nil
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid user role: %q", r)
	}
	return string(r), nil
}

func (r *UserRole) Scan(value interface{}) error {
	if value == nil {
		*r = RoleStudent
		return nil
	}

	switch v := value.(type) {
	case string:
		role := UserRole(strings.ToLower(strings.TrimSpace(v)))
		if !role.IsValid() {
			return fmt.Errorf("invalid user role: %q", v)
		}
		*r = role
		return nil
	case []byte:
		role := UserRole(strings.ToLower(strings.TrimSpace(string(v))))
		if !role.IsValid() {
			return fmt.Errorf("invalid user role: %q", v)
		}
		*r = role
		return nil
	default:
		return fmt.Errorf("unsupported type for UserRole: %T", value)
	}
}

func ParseUserRole(value interface{}) (UserRole, bool) {
	switch v := value.(type) {
	case UserRole:
		if !v.IsValid() {
			return "", false
		}
		return v, true
	case string:
		role := UserRole(strings.ToLower(strings.TrimSpace(v)))
		if !role.IsValid() {
			return "", false
		}
		return role, true
	case []byte:
		role := UserRole(strings.ToLower(strings.TrimSpace(string(v))))
		if !role.IsValid() {
			return "", false
		}
		return role, true
	default:
		return "", false
	}
}

// CanManageCourse is the single capability check used by every structural
// mutation on a course's content: admins may touch any course, instructors
// only their own. Called once at the top of each mutating service operation.
func CanManageCourse(role UserRole, instructorID, callerID uint) bool {
	if role == RoleAdmin {
		return true
	}
	return role == RoleInstructor && instructorID != 0 && instructorID == callerID
}

// CanPublishCourse mirrors CanManageCourse; publish transitions carry the
// same ownership requirement.
func CanPublishCourse(role UserRole, instructorID, callerID uint) bool {
	return CanManageCourse(role, instructorID, callerID)
}
