package permission

import "net/http"

type Verb string

const (
	VerbCreate Verb = "create"
	VerbRead   Verb = "read"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// VerbFromMethod maps an HTTP method onto a verb.
func VerbFromMethod(method string) (Verb, bool) {
	switch method {
	case http.MethodPost:
		return VerbCreate, true
	case http.MethodGet, http.MethodHead:
		return VerbRead, true
	case http.MethodPut, http.MethodPatch:
		return VerbUpdate, true
	case http.MethodDelete:
		return VerbDelete, true
	default:
		return "", false
	}
}

func (v Verb) Mutating() bool { return v != VerbRead }
