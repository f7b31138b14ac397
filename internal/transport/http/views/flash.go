package views

import "net/url"

var flashes = map[string]string{
	"saved":       "Changes saved.",
	"created":     "Created.",
	"deleted":     "Deleted.",
	"deactivated": "Deactivated.",
	"resolved":    "Warning resolved.",
	"warned":      "Warning issued.",
	"revoked":     "All sessions of this user were signed out.",
	"checked_in":  "Checked in.",
	"checked_out": "Checked out.",
	"mfa_enabled": "Two-factor authentication is on.",
	"registered":  "Account created. You can sign in now.",
	"status":      "Payment status updated.",
}

var failures = map[string]string{
	"invalid":         "Some fields are missing or invalid.",
	"not_found":       "That record no longer exists.",
	"failed":          "Something went wrong. Please try again.",
	"already_in":      "You already checked in today.",
	"already_out":     "You already checked out today.",
	"not_in":          "Check in before checking out.",
	"no_location":     "The office location has not been configured yet.",
	"bad_coordinates": "The coordinates are out of range.",
	"transition":      "That status change is not allowed.",
	"mfa_invalid":     "The code was not accepted.",
	"duplicate":       "A warning of that kind was already issued today.",
	"outside":         "Attempt recorded as failed: you are outside the office radius.",
}

// Messages maps the ok and err query codes set by post/redirect/get
// handlers to banner text. Unknown codes are ignored.
func Messages(q url.Values) (flash, errMsg string) {
	return flashes[q.Get("ok")], failures[q.Get("err")]
}
