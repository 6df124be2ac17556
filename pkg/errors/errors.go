package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrConfiguration    = errors.New("invalid configuration")
	ErrResourceNotFound = errors.New("resource not found")
	ErrUnknownBinding   = errors.New("unknown channel binding")
	ErrInvalidFormat    = errors.New("unsupported media format")
	ErrNothingLoaded    = errors.New("no media loaded")
	ErrInvalidVolume    = errors.New("volume must be between 0.0 and 1.0")
	ErrNotArtNet        = errors.New("not an Art-Net packet")
	ErrShortPacket      = errors.New("short Art-Net packet")
	ErrUnsupportedOp    = errors.New("unsupported Art-Net opcode")
)

// ConfigError names the playlist program whose configuration is malformed
type ConfigError struct {
	Program int
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("program %d: %s: %v", e.Program, e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError wrapping ErrConfiguration
func NewConfigError(program int, reason string) *ConfigError {
	return &ConfigError{Program: program, Reason: reason, Err: ErrConfiguration}
}

// BindingError reports a channel binding that cannot be routed
type BindingError struct {
	Channel int
	Command string
	Err     error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("channel %d (%s): %v", e.Channel, e.Command, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// PlayerError wraps errors with additional context
type PlayerError struct {
	Op   string // Operation that failed
	Path string // Media path if applicable
	Err  error  // Underlying error
}

func (e *PlayerError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError
func NewPlayerError(op, path string, err error) *PlayerError {
	return &PlayerError{Op: op, Path: path, Err: err}
}

// ScanError represents an error during media directory scanning
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan error at %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
