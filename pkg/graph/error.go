package graph

import "errors"

// ErrUnavailable is returned when the graph service cannot be reached or
// is unhealthy. Callers treat it as a degradation signal, not a failure:
// the local store remains the system of record.
var ErrUnavailable = errors.New("graph service unavailable")
