package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// CliOptions abstracts configuration options for reading parameters from the
// command line.
type CliOptions interface {
	// Flags returns the flags grouped by section for sectioned help output.
	Flags() cliflag.NamedFlagSets
	Validate() error
}

// CompleteableOptions fills in defaults that depend on other options.
type CompleteableOptions interface {
	Complete() error
}

// NamedFlagSetOptions is implemented by every command's options struct.
type NamedFlagSetOptions interface {
	CliOptions
	CompleteableOptions
}
