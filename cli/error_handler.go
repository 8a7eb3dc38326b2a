package cli

import (
	"fmt"
	"os"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle prints a helpful message for known error codes and returns the error
// unchanged so the caller can still exit non-zero.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeTransport:
		fmt.Fprintf(os.Stderr, "❌ Could not reach the daemon: %v\n", err)
		fmt.Fprintf(os.Stderr, "Is it running? Start it with 'seriem daemon start'.\n")
		return err

	case errors.ErrCodeNotFound:
		if serr, ok := errors.AsSeriem(err); ok {
			if id, has := serr.Details["proposalId"]; has {
				fmt.Fprintf(os.Stderr, "❌ Proposal '%v' not found. It may have been decided or expired.\n", id)
				fmt.Fprintf(os.Stderr, "Run 'seriem proposals list' to see what is pending.\n")
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "❌ Not found: %v\n", err)
		return err

	case errors.ErrCodeInvalidWorkspace:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Select a workspace with 'seriem workspace select <path>'.\n")
		return err

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a seriem.yml or set SERIEM_CONFIG.\n")
		return err

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if serr, ok := errors.AsSeriem(err); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", serr.ToJSON())
			}
		}
		return err
	}
}
