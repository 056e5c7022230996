package credentials

import (
	"errors"
	"fmt"
)

// Kind is the category of a credential store failure.
type Kind int

const (
	// KindNotFound means no record is stored.
	KindNotFound Kind = iota
	// KindCorrupt means a record is stored but lacks the required fields.
	KindCorrupt
	// KindInvalid means a save was refused because a field is empty.
	KindInvalid
	// KindIO means the storage read, write or delete failed.
	KindIO
	// KindUnavailable means the storage is not mounted.
	KindUnavailable
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "Not Found"
	case KindCorrupt:
		return "Corrupt Record"
	case KindInvalid:
		return "Invalid Credentials"
	case KindIO:
		return "Storage I/O Error"
	case KindUnavailable:
		return "Storage Unavailable"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

var (
	// ErrNotFound is matched by errors.Is for KindNotFound errors.
	ErrNotFound = errors.New("credentials not found")
	// ErrCorrupt is matched by errors.Is for KindCorrupt errors.
	ErrCorrupt = errors.New("credentials record corrupt")
)

// StoreError is returned by every Store operation.
type StoreError struct {
	Kind Kind
	Op   string // "load", "save" or "erase"
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Op, e.Kind)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinels by kind.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrCorrupt:
		return e.Kind == KindCorrupt
	}
	return false
}

// KindOf returns the kind of a store error, or -1 if err is not one.
func KindOf(err error) Kind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return -1
}

// IsMissing reports whether err means "boot without credentials":
// absent, corrupt, or unreadable.
func IsMissing(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindCorrupt, KindIO, KindUnavailable:
		return true
	}
	return false
}

// ShortMessage returns a display-sized description of err.
func ShortMessage(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return "No saved network"
	case KindCorrupt:
		return "Saved network corrupt"
	case KindInvalid:
		return "Name/secret empty"
	case KindIO:
		return "Storage write failed"
	case KindUnavailable:
		return "Storage unavailable"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
