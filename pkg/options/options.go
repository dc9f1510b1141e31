// Package options defines the generic options interface and flag helpers.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join concatenates prefixes with "." and appends a trailing "." when
// non-empty, producing flag names like "prefix.redis.host".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions is implemented by every option group.
type IOptions interface {
	// Validate validates the options and returns all problems found.
	Validate() []error

	// AddFlags registers the group's flags on the flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
