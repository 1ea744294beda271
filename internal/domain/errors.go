package domain

import (
	"errors"
	"fmt"
)

// ErrNoDetector is returned when no license detector can run.
var ErrNoDetector = errors.New("no license detector is available")

// ConfigError reports an invalid configuration document or entry.
type ConfigError struct {
	Source string
	Msg    string
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return "invalid configuration: " + e.Msg
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Source, e.Msg)
}

// LicenseError reports a failure to determine or combine licenses.
type LicenseError struct {
	Path string
	Msg  string
	Err  error
}

func (e *LicenseError) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *LicenseError) Unwrap() error { return e.Err }

// DetectorNotAvailableError is returned by detector constructors when the
// backend cannot run on this machine.
type DetectorNotAvailableError struct {
	Detector string
	Reason   string
}

func (e *DetectorNotAvailableError) Error() string {
	return fmt.Sprintf("detector %s is not available: %s", e.Detector, e.Reason)
}

// DetectorError reports a whole-run failure of a detector backend.
type DetectorError struct {
	Detector string
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Detector, e.Err)
}

func (e *DetectorError) Unwrap() error { return e.Err }

// ArchiveError reports a failure while creating a vendor archive.
type ArchiveError struct {
	Op  string
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive: %s: %v", e.Op, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// MissingDependencyError reports an external program or feature that an
// action needs but that is not installed.
type MissingDependencyError struct {
	Dependency string
	Action     string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is required for %s", e.Dependency, e.Action)
}
