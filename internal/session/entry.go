package session

import "fmt"

// Entry names used by the CLI and HTTP surfaces.
const (
	EntryAuthorizationCode = "authorization-code"
	EntrySessionID         = "session-id"
)

// Entries lists the entry names in display order.
var Entries = []string{EntryAuthorizationCode, EntrySessionID}

// Entry gives uniform access to one of the two session values.
type Entry struct {
	Name  string
	Key   string
	Get   func() *string
	Set   func(*string) error
	Clear func() error
}

// Lookup returns the entry called name.
func (s *LocalSession) Lookup(name string) (Entry, error) {
	switch name {
	case EntryAuthorizationCode:
		return Entry{
			Name:  name,
			Key:   AuthorizationCodeKey,
			Get:   s.AuthorizationCode,
			Set:   s.SetAuthorizationCode,
			Clear: s.ClearAuthorizationCode,
		}, nil
	case EntrySessionID:
		return Entry{
			Name:  name,
			Key:   SessionIDKey,
			Get:   s.SessionID,
			Set:   s.SetSessionID,
			Clear: s.ClearSessionID,
		}, nil
	default:
		return Entry{}, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownEntry, name, EntryAuthorizationCode, EntrySessionID)
	}
}
