package snapshot

import "errors"

// ErrRefNotFound is returned when a ref integer does not appear in the
// current ref table, or resolves to zero live elements.
var ErrRefNotFound = errors.New("snapshot: ref not found")
