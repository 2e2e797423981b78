package paramsign

import "strings"

// Policy decides per request path whether a request is signed.
//
// Exclude wins over Include. With an empty Include every path not excluded
// is signed.
type Policy struct {
	// Include lists path prefixes that are signed.
	Include []string `yaml:"include" json:"include,omitempty"`

	// Exclude lists path prefixes that are never signed.
	Exclude []string `yaml:"exclude" json:"exclude,omitempty"`
}

// Applies reports whether a request for path should be signed.
func (p Policy) Applies(path string) bool {
	for _, prefix := range p.Exclude {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}

	if len(p.Include) == 0 {
		return true
	}

	for _, prefix := range p.Include {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
