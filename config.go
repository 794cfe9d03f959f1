package x402

import "time"

// DefaultRequestTimeout bounds every network call made by the paying HTTP
// client and the discovery client when no explicit timeout is configured.
const DefaultRequestTimeout = 30 * time.Second
