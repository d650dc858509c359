// Package relay implements the domain.RelayClient boundary to the
// store-and-forward relay network.
//
// The network offers no delivery guarantee, no ordering guarantee, and no
// dedupe: every relay that holds an envelope matching a subscription filter
// will hand it over, so the same logical message may arrive many times.
// Confidentiality comes entirely from the encrypted channel above this layer.
//
// Contents:
//
//   - HTTP: JSON-over-HTTP client that publishes to every relay in a set and
//     merges per-relay polling loops into one subscription stream. All retry
//     and backoff policy for the transport lives here, not in callers.
//   - Memory: an in-process relay network for tests and local development.
//   - Server: the http.Handler behind cmd/relayd, a minimal single-process
//     relay endpoint.
package relay
