package acapi

import "errors"

// ErrSessionExpired is returned when a request is redirected into the AC's
// login flow, meaning the browser session backing the page handle no longer
// carries a valid auth cookie. The core only reports this; re-login is a
// host concern.
var ErrSessionExpired = errors.New("acapi: session expired")

// ErrAPIError wraps a non-OK HTTP response from the AC.
var ErrAPIError = errors.New("acapi: request failed")
