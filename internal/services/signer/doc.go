// Package signer owns the remote-signer session lifecycle and exposes the
// caller-facing operation surface.
//
// State machine: disconnected -> connecting -> connected -> disconnected.
// Exactly one handshake may run at a time, exactly one session exists per
// Service, and the client identity secret is owned by the Service alone:
// generated at handshake start, wiped on disconnect.
//
// Callers hold a Service value they constructed themselves; there is no
// package-level instance, so independent sessions (and tests) cannot
// interfere with each other.
package signer
