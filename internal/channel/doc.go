// Package channel turns plaintext request/response payloads into encrypted,
// signed relay envelopes addressed to a specific remote identity, and back.
//
// Unwrap deliberately reports failure as (nil, false) rather than an error:
// the subscription filter matches traffic from anyone, so "not addressed to
// this session" is the common case and must be silently skippable.
package channel
