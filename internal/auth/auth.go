// Package auth defines the actor identity and the authorization policy
// consulted by every calendar-mutating operation. Actors are always passed
// explicitly; nothing in the core reads an ambient current user.
package auth

import (
	"errors"

	"github.com/aimd54/officecal/internal/models"
)

// ErrForbidden is returned when an actor lacks the privilege an operation
// requires.
var ErrForbidden = errors.New("forbidden")

// Actor is the authenticated identity an operation runs as.
type Actor struct {
	ID   uint
	Role models.Role
}

// ActorFromUser builds an actor from a resolved user row.
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanEditCalendar allows an actor to write a user's calendar: admins may
// write anyone's, everyone else only their own.
func CanEditCalendar(a Actor, targetUserID uint) error {
	if a.IsAdmin() || a.ID == targetUserID {
		return nil
	}
	return ErrForbidden
}

// CanViewCalendar mirrors CanEditCalendar for single-user calendar reads.
func CanViewCalendar(a Actor, targetUserID uint) error {
	return CanEditCalendar(a, targetUserID)
}

// CanAdministrate allows admin-only operations: user/department management,
// month locking, day override toggles.
func CanAdministrate(a Actor) error {
	if a.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanWriteLockedMonth allows writes to a locked month. Only admins may
// adjust statuses or notes once a month is locked.
func CanWriteLockedMonth(a Actor) error {
	if a.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
