package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// PassError is a structured failure raised by the lowering pass. The first
// occurrence aborts the pass; there is no recovery.
type PassError struct {
	Code    string // error code like P0001
	Message string // primary message
	Subject string // rendering of the offending operation or value, optional
	Notes   []string
}

func (e *PassError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// New creates a pass error with the given code and message.
func New(code, format string, args ...interface{}) *PassError {
	return &PassError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSubject attaches the offending operation's rendering.
func (e *PassError) WithSubject(subject string) *PassError {
	e.Subject = strings.TrimRight(subject, "\n")
	return e
}

// WithNote attaches an additional context note.
func (e *PassError) WithNote(format string, args ...interface{}) *PassError {
	e.Notes = append(e.Notes, fmt.Sprintf(format, args...))
	return e
}

// Reporter formats pass failures for terminal output.
type Reporter struct{}

// NewReporter creates a reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Format renders a pass error with the same styling the rest of the
// toolchain uses for compiler diagnostics.
func (r *Reporter) Format(err *PassError) string {
	var result strings.Builder

	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	result.WriteString(fmt.Sprintf("%s[%s]: %s\n", red("error"), err.Code, bold(err.Message)))
	if err.Subject != "" {
		for _, line := range strings.Split(err.Subject, "\n") {
			result.WriteString(fmt.Sprintf("  %s %s\n", dim("|"), line))
		}
	}
	for _, note := range err.Notes {
		result.WriteString(fmt.Sprintf("%s: %s\n", cyan("note"), note))
	}

	return result.String()
}
