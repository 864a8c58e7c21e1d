package eventstream

import "errors"

// ErrNilMemoryEvent indicates a nil event payload was provided to a publisher.
var ErrNilMemoryEvent = errors.New("nil memory event")
