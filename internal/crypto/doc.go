// Package crypto exposes the minimal primitives used by the signer protocol.
//
// Contents
//
//   - Ed25519 identity generation, signing and verification (GenerateIdentity,
//     Sign, Verify)
//   - Shared-secret derivation between two Ed25519 identities via their
//     X25519 forms (DeriveSharedSecret)
//   - Authenticated symmetric sealing of byte payloads (Seal, Open)
//   - Canonical journal-event digests (EventID)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Open never returns an error: the subscribed relay stream carries traffic
// that is not addressed to this session, so "not decryptable by me" is a
// normal outcome reported as ok=false. Callers must treat it as ignorable.
package crypto
