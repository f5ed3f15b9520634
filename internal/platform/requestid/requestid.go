package requestid

import (
	"strings"

	"github.com/google/uuid"
)

const Header = "X-Request-Id"

// New returns a fresh request id.
func New() string {
	return uuid.NewString()
}

// FromHeader keeps a caller supplied id when it is short and printable.
func FromHeader(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 128 {
		return New()
	}
	for _, r := range v {
		if r < 0x21 || r > 0x7e {
			return New()
		}
	}
	return v
}
