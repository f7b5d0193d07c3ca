package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies update failures so callers can decide whether a failure is
// user facing or only a guard.
type Kind int

const (
	KindUnknown Kind = iota
	// KindCheck is a network or parse failure of the feed query
	KindCheck
	// KindNoUpdateHandle is an install request without an available update
	KindNoUpdateHandle
	// KindPrimaryInstall is a failure of the feed descriptor's own install path
	KindPrimaryInstall
	// KindFallbackInfeasible means no version is known to build the fallback artifact
	KindFallbackInfeasible
	// KindFetch is a transport error or non-success HTTP status
	KindFetch
	// KindInstallerLaunch means the installer failed to start or exited non-zero
	KindInstallerLaunch
	// KindRelaunch is a best-effort restart failure, never surfaced to the user
	KindRelaunch
)

func (k Kind) String() string {
	switch k {
	case KindCheck:
		return "check failure"
	case KindNoUpdateHandle:
		return "no update handle"
	case KindPrimaryInstall:
		return "primary install failure"
	case KindFallbackInfeasible:
		return "fallback infeasible"
	case KindFetch:
		return "fetch failure"
	case KindInstallerLaunch:
		return "installer launch failure"
	case KindRelaunch:
		return "relaunch failure"
	default:
		return "unknown failure"
	}
}

// UserFacing reports whether failures of this kind are shown to the user
func (k Kind) UserFacing() bool {
	switch k {
	case KindNoUpdateHandle, KindFallbackInfeasible, KindRelaunch:
		return false
	default:
		return true
	}
}

// UpdateError carries the failure kind next to the underlying error
type UpdateError struct {
	Kind Kind
	Err  error
}

// New wraps err with the given kind. A nil err yields nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &UpdateError{Kind: kind, Err: err}
}

// Newf builds an UpdateError from a format string
func Newf(kind Kind, format string, args ...any) error {
	return &UpdateError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *UpdateError) Error() string {
	return e.Err.Error()
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Is matches another UpdateError of the same kind, so sentinel comparisons
// like errors.Is(err, &UpdateError{Kind: KindFetch}) work.
func (e *UpdateError) Is(target error) bool {
	t, ok := target.(*UpdateError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Err == nil || errors.Is(e.Err, t.Err))
}

// KindOf returns the kind of the first UpdateError in err's chain
func KindOf(err error) Kind {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindUnknown
}

func formatError(es []error) string {
	if len(es) == 1 {
		return fmt.Sprintf("1 error occurred:\n\t* %s", es[0])
	}

	points := make([]string, len(es))
	for i, err := range es {
		points[i] = fmt.Sprintf("* %s", err)
	}

	return fmt.Sprintf(
		"%d errors occurred:\n\t%s",
		len(es), strings.Join(points, "\n\t"))
}

func FormatErrorOrNil(err *multierror.Error) error {
	if err != nil {
		err.ErrorFormat = formatError
	}
	return err.ErrorOrNil()
}
