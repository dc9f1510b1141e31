// Package cliflag groups pflag flagsets by section for structured help output.
package cliflag

import "github.com/spf13/pflag"

// NamedFlagSets stores named flag sets in registration order.
type NamedFlagSets struct {
	// Order lists section names in the order they were created.
	Order []string

	// FlagSets maps section name to its flag set.
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet returns the flag set for the given name, creating it if needed.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}
