package main

// Exit codes
const (
	ExitSuccess     = 0   // Success
	ExitError       = 1   // General error (invalid arguments, runtime failure)
	ExitConfigError = 2   // Configuration error (no library, invalid config)
	ExitDataError   = 3   // Data error (malformed library or .bib file)
	ExitNotFound    = 4   // Paper id not in the library
	ExitNotAPaper   = 5   // URL or file is not recognized as a paper
	ExitInterrupted = 130 // Aborted by a second interrupt
)
