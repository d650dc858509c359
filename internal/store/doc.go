// Package store persists application state in a single bbolt file.
//
// Buckets:
//
//   - session: at most one record, sealed with a passphrase-derived key so
//     the client secret never touches disk in the clear
//   - notes: encrypted journal entries keyed by id
//   - rewards: append-only signed reward entries keyed by sequence
//
// Cross-process concurrent access to the file is out of scope; bbolt's file
// lock makes a second opener fail rather than corrupt.
package store
