// Package notifications handles POST /ocm/notifications: the share
// lifecycle state machine driven by peer notifications.
package notifications

// Notification types understood by the dispatcher. Anything else is a
// distinct unsupported outcome, not an error.
const (
	TypeShareAccepted           = "SHARE_ACCEPTED"
	TypeShareDeclined           = "SHARE_DECLINED"
	TypeRequestReshare          = "REQUEST_RESHARE"
	TypeReshareChangePermission = "RESHARE_CHANGE_PERMISSION"
	TypeShareUnshared           = "SHARE_UNSHARED"
	TypeReshareUndo             = "RESHARE_UNDO"
)

// IsKnownType reports whether the dispatcher has a transition for t.
func IsKnownType(t string) bool {
	switch t {
	case TypeShareAccepted, TypeShareDeclined, TypeRequestReshare,
		TypeReshareChangePermission, TypeShareUnshared, TypeReshareUndo:
		return true
	}
	return false
}
