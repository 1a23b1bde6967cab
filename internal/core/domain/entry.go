package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// EntryRef names the attribute inside a module's exports that serves
// requests, in "module:attribute" form.
type EntryRef struct {
	Module InternedString
	Attr   string
}

// ParseEntryRef parses an entry reference. The reference is split at the
// last colon so module names containing colons keep working.
func ParseEntryRef(s string) (EntryRef, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return EntryRef{}, zerr.With(ErrInvalidEntry, "entry", s)
	}
	return EntryRef{
		Module: NewInternedString(s[:idx]),
		Attr:   s[idx+1:],
	}, nil
}

// String returns the reference in "module:attribute" form.
func (e EntryRef) String() string {
	return e.Module.String() + ":" + e.Attr
}
