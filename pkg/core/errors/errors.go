package errors

import "errors"

// Catalog errors
var (
	ErrEntryNotFound = errors.New("catalog: entry not found")
	ErrStoreClosed   = errors.New("catalog: store is closed")
	ErrUnknownDriver = errors.New("catalog: unknown store driver")
)

// Lookup errors
var (
	ErrUnknownField    = errors.New("lookup: unknown target field")
	ErrUnknownSite     = errors.New("lookup: unknown site")
	ErrNoSession       = errors.New("lookup: no fetch session available")
	ErrContentTooSmall = errors.New("extract: content below minimum size")
	ErrLookupBusy      = errors.New("lookup: another lookup is in progress")
)
