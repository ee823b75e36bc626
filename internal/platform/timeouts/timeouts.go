// Package timeouts defines shared timeout constants used across the
// service. Centralizing these values prevents drift between boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// HubRequest caps the time allowed for a single settlement call to the
// hub authority.
const HubRequest = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 10 * time.Second
