package rpcclient

import "errors"

// ErrAllEndpointsFailed is the combined-failure error returned by race
// when every configured URL failed, matching the original's
// send_request_race behavior of surfacing a single combined message rather
// than N separate errors.
var ErrAllEndpointsFailed = errors.New("rpcclient: all endpoints failed")

// ErrNoURLs is returned when a client is configured with an empty URL list.
var ErrNoURLs = errors.New("rpcclient: no urls configured")
