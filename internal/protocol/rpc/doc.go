// Package rpc correlates request/response exchanges over an established
// signer session.
//
// Every call gets a fresh correlation id and a bounded deadline. Responses
// are matched solely by id, never by arrival order, so concurrent calls may
// resolve out of call order. Envelopes that do not decrypt, decrypt to junk,
// or reference an unknown or already-settled id are discarded without side
// effects.
package rpc
