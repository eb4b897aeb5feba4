package media

import "errors"

// Path-safety errors live in internal/pathsafe (ErrOutsideRoot); OpenFile and
// OpenResource pass those through unwrapped so callers can errors.Is against
// pathsafe.ErrOutsideRoot directly.
var ErrUnsupportedMode = errors.New("unsupported resource mode")
