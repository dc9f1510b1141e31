package app

import "github.com/loaddesk/loaddesk/pkg/app/cliflag"

// CliOptions is the contract an options aggregate must satisfy to be wired
// into an App.
type CliOptions interface {
	// Flags returns the named flag sets for the command line.
	Flags() cliflag.NamedFlagSets

	// Complete fills in defaults derived from other options.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}
