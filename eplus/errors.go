package eplus

import (
	"fmt"
	"strings"
)

// VersionError reports a malformed version or an impossible ordering
// (e.g. a downgrade). It is always raised before any side effect.
type VersionError struct {
	Input   string
	Current Version
	Target  Version
	Reason  string
}

func (e *VersionError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("invalid engine version %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("engine version %s -> %s: %s", e.Current, e.Target, e.Reason)
}

// MissingToolError reports that the transition tool for a ladder step is not
// installed in the directory that was searched.
type MissingToolError struct {
	Step Version
	Dir  string
	Path string // set when a tool was discovered but vanished or is not executable
}

func (e *MissingToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "missing transition tool to upgrade to version %s in %q", e.Step, e.Dir)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s is absent or not executable)", e.Path)
	}
	b.WriteString("; install the IDFVersionUpdater programs for every intermediate version" +
		" or point --updater-dir at a directory that contains them")
	return b.String()
}

// LaunchError reports that an external executable could not be started.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ProcessError reports that an external tool ran and failed, or produced an
// absent or ambiguous result despite a zero exit code.
type ProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Reason   string
	Err      error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Command)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "\nstderr: %s", s)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// BalanceInputError reports that the output series available for one balance
// component are missing or structurally inconsistent. The component is then
// reported as unavailable; the rest of the balance proceeds.
type BalanceInputError struct {
	Component string
	Reason    string
}

func (e *BalanceInputError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("energy balance input: %s", e.Reason)
	}
	return fmt.Sprintf("energy balance input for %s: %s", e.Component, e.Reason)
}

// FieldError reports a missing or unparsable field on a model object.
type FieldError struct {
	ObjectType string
	ObjectName string
	Field      string
	Reason     string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: field %q %s", e.ObjectType, e.ObjectName, e.Field, e.Reason)
}
