package domain

import "go.trai.ch/zerr"

var (
	// ErrModuleAlreadyDefined is returned when a module name is declared twice.
	ErrModuleAlreadyDefined = zerr.New("module already defined")

	// ErrModuleNotFound is returned when a referenced module is not declared.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrMissingDependency is returned when a module depends on a module that doesn't exist.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected among module dependencies.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrInvalidModuleName is returned when a module name is invalid.
	ErrInvalidModuleName = zerr.New("module name can only contain alphanumeric characters, hyphens and underscores")

	// ErrUnknownKind is returned when a module declares a kind no loader exists for.
	ErrUnknownKind = zerr.New("unknown module kind")

	// ErrNoFilesDeclared is returned when a module declares no file patterns.
	ErrNoFilesDeclared = zerr.New("module declares no files")

	// ErrInvalidGlob is returned when a file pattern is not a valid glob.
	ErrInvalidGlob = zerr.New("invalid file pattern")

	// ErrInvalidEntry is returned when an entry reference doesn't parse.
	ErrInvalidEntry = zerr.New("invalid entry reference, expected format: module:attribute")

	// ErrInvalidRoot is returned when the configured project root is not a directory.
	ErrInvalidRoot = zerr.New("project root is not a directory")

	// ErrInvalidDebounce is returned when the configured debounce window is not positive.
	ErrInvalidDebounce = zerr.New("debounce must be a positive duration")

	// ErrModuleNotLoaded is returned when a module's exports are requested but it is not loaded.
	ErrModuleNotLoaded = zerr.New("module not loaded")

	// ErrModuleLoadFailed is returned when a module's loader fails.
	ErrModuleLoadFailed = zerr.New("module load failed")

	// ErrEntryNotResolvable is returned when the entry attribute is missing or not a request handler.
	ErrEntryNotResolvable = zerr.New("entry attribute not resolvable")

	// ErrChangeRegistration is returned when the closure provider rejects a changed-file batch.
	ErrChangeRegistration = zerr.New("failed to register changed files")

	// ErrClosureComputation is returned when the affected-module closure cannot be computed.
	ErrClosureComputation = zerr.New("failed to compute module closure")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find molt.yaml")

	// ErrDataParseFailed is returned when a data file cannot be parsed.
	ErrDataParseFailed = zerr.New("failed to parse data file")

	// ErrRouteParseFailed is returned when a routes file cannot be parsed.
	ErrRouteParseFailed = zerr.New("failed to parse routes file")

	// ErrInvalidRoute is returned when a route entry is incomplete, duplicated
	// or references a data key its dependencies don't provide.
	ErrInvalidRoute = zerr.New("invalid route")

	// ErrTemplateNotFound is returned when a route names a template its dependencies don't provide.
	ErrTemplateNotFound = zerr.New("template not found")

	// ErrUnknownGraphFormat is returned when a graph rendering format is not supported.
	ErrUnknownGraphFormat = zerr.New("unknown graph format, expected dot or mermaid")
)
