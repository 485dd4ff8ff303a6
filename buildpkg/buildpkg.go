/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package buildpkg defines the error taxonomy shared by every build-time
// subsystem: a Kind that maps to a process exit code, and an Error type
// that wraps the underlying failure while carrying that Kind through
// errors.Is/errors.As.
package buildpkg

import (
	"errors"
	"fmt"
)

// Kind classifies a build failure for exit-code and logging purposes.
type Kind int

const (
	// Generic covers unexpected failures with no more specific kind.
	Generic Kind = iota
	// TypeCheck is raised when the compiler's emit returns error
	// diagnostics; the build aborts before bundling.
	TypeCheck
	// Bundle covers entry points that can't be found, unsupported
	// syntax, and resolver results inconsistent with the store.
	Bundle
	// Configuration covers unreadable/invalid project config and
	// missing optional dependencies a requested feature needs.
	Configuration
)

func (k Kind) String() string {
	switch k {
	case TypeCheck:
		return "TypeCheck"
	case Bundle:
		return "Bundle"
	case Configuration:
		return "Configuration"
	default:
		return "Generic"
	}
}

// ExitCode returns the process exit code this kind maps to.
func (k Kind) ExitCode() int {
	switch k {
	case TypeCheck:
		return 1
	case Bundle:
		return 2
	case Configuration:
		return 3
	default:
		return 99
	}
}

// Error wraps an underlying error with a Kind, so the orchestrator can
// derive an exit code and the right log treatment without re-deriving
// context the point of failure already had.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns the exit code for this error's Kind.
func (e *Error) ExitCode() int { return e.Kind.ExitCode() }

// New constructs an Error of the given kind from a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Err: errors.New(message)}
}

// Newf constructs an Error of the given kind from a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it for
// errors.Is/errors.As via Unwrap. Returns nil if err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// WrapTypeCheck wraps a compiler-diagnostics failure.
func WrapTypeCheck(err error) error { return Wrap(TypeCheck, err) }

// WrapBundle wraps a bundling failure, including the Processor's
// UnsupportedSyntaxError per the taxonomy's "wrapped as Bundle" rule.
func WrapBundle(err error) error { return Wrap(Bundle, err) }

// WrapConfiguration wraps a configuration-loading failure.
func WrapConfiguration(err error) error { return Wrap(Configuration, err) }

// ExitCodeFor derives the process exit code for any error: *Error yields
// its Kind's code, a nil error yields 0, anything else yields Generic's 99.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var be *Error
	if errors.As(err, &be) {
		return be.ExitCode()
	}
	return Generic.ExitCode()
}
