package export

import "fmt"

// UnknownMemberError reports a transaction naming a member that is not on
// the ledger roster.
type UnknownMemberError struct {
	Member string
	// Entry is the index of the offending transaction.
	Entry int
}

func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("export: entry %d: unknown member %q", e.Entry, e.Member)
}
