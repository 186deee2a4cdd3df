package archivechaine

import (
	"fmt"
)

// ConfigError reports missing or invalid client configuration. It is
// always raised before any network interaction.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// ValidationError reports malformed local input, detected before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a network or protocol failure while talking to
// the service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an archive id unknown to the service. It is
// distinct from TransportError so callers can tell "doesn't exist"
// from "couldn't ask".
type NotFoundError struct {
	ArchiveID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("archive %q not found", e.ArchiveID)
}

// RemoteError carries a failure reported by the service itself,
// either as an API error body or as a failed terminal update.
type RemoteError struct {
	ArchiveID string
	Code      int
	Message   string
}

func (e *RemoteError) Error() string {
	if e.ArchiveID != "" {
		return fmt.Sprintf("archival of %s failed: %s", e.ArchiveID, e.Message)
	}
	return fmt.Sprintf("service error: %s", e.Message)
}
