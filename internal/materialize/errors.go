package materialize

import "fmt"

// ArchiveError reports an unreadable archive or an entry that cannot be
// placed safely.
type ArchiveError struct {
	Archive string
	Entry   string // empty when the archive as a whole is at fault
	Reason  string
	Err     error
}

func (e *ArchiveError) Error() string {
	msg := e.Archive
	if e.Entry != "" {
		msg = fmt.Sprintf("%s: entry %q", msg, e.Entry)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArchiveError) Unwrap() error { return e.Err }
