package browserpage

import "errors"

// ErrLocatorFailure is returned when a locator operation (click, fill, ...)
// fails against a resolved element, as distinct from the element not being
// found at all.
var ErrLocatorFailure = errors.New("browserpage: locator operation failed")
