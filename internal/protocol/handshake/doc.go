// Package handshake drives connection establishment with a key holder.
//
// Two initiation directions exist, expressed as a tagged Mode variant:
//
//   - LocalInit: we advertise a descriptor out of band and wait for the
//     holder to approve by sending a connect request to our identity.
//   - RemoteInit: the holder gave us a descriptor out of band; we send the
//     connect request and wait for its response.
//
// Both directions end in the same terminal states: an established
// domain.Session, ErrConnectionRejected, or ErrConnectionTimeout. Duplicate
// deliveries across relays are deduped by envelope id, and any traffic that
// does not decrypt for us is skipped silently.
package handshake
