package permission

import (
	"net/http"

	"weeklychef/internal/catalog"
)

type Reason string

const (
	ReasonStaffBypass     Reason = "staff_bypass"
	ReasonOwner           Reason = "owner"
	ReasonOpenRead        Reason = "open_read"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotOwner        Reason = "not_owner"
	ReasonStaffRequired   Reason = "staff_required"
	ReasonMissingField    Reason = "missing_required_field"
	ReasonNotFound        Reason = "not_found"
	ReasonUnsupported     Reason = "unsupported_operation"
)

// Decision is the outcome of one permission check.
// Err carries the ownership error behind a denial, if any.
type Decision struct {
	Family  catalog.Family
	Verb    Verb
	Allowed bool
	Reason  Reason
	Err     error
}

// Status maps the decision onto an HTTP status code.
func (d Decision) Status() int {
	if d.Allowed {
		return http.StatusOK
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonNotOwner, ReasonStaffRequired:
		return http.StatusForbidden
	case ReasonMissingField:
		return http.StatusBadRequest
	case ReasonNotFound:
		return http.StatusNotFound
	case ReasonUnsupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusForbidden
	}
}

// Message is a client facing description of a denial.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonUnauthenticated:
		return "authentication credentials were not provided or are invalid"
	case ReasonNotOwner:
		return "only the owner can perform this action"
	case ReasonStaffRequired:
		return "staff permission required"
	case ReasonMissingField, ReasonNotFound:
		if d.Err != nil {
			return d.Err.Error()
		}
		return string(d.Reason)
	case ReasonUnsupported:
		return "method not allowed"
	default:
		return ""
	}
}
