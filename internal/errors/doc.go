// Package errors provides typed errors with exit codes for conduit-console.
//
// ConduitError carries an exit code alongside the message and wrapped cause:
//
//	type ConduitError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess            = 0
//	ExitGeneralError       = 1
//	ExitConduitNotFound    = 2
//	ExitConduitExists      = 3
//	ExitBackendUnavailable = 4
//	ExitContainerFailed    = 5
//	ExitConfigError        = 6
//	ExitUnitError          = 7
//	ExitValidation         = 8
//
// Use GetExitCode at the top of main:
//
//	if err := cmd.Execute(); err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
