package domain

import "fmt"

// UpdatePolicy selects how PUT /services/{id} treats fields missing from the
// request.
type UpdatePolicy string

const (
	// UpdatePolicyPartial writes only the fields present in the request.
	UpdatePolicyPartial UpdatePolicy = "partial"
	// UpdatePolicyReplace writes every field; missing ones are removed.
	UpdatePolicyReplace UpdatePolicy = "replace"
)

// ParseUpdatePolicy returns the policy named by s.
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch p := UpdatePolicy(s); p {
	case UpdatePolicyPartial, UpdatePolicyReplace:
		return p, nil
	default:
		return "", fmt.Errorf("unknown update policy %q", s)
	}
}
