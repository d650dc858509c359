// Package commands defines the journal CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - connect     Pair with a key holder (either direction)
//   - resume      Re-attach to a persisted session without a handshake
//   - identity    Print the key holder's public identity
//   - sign        Have the key holder sign an event
//   - note        Add, list, read and delete encrypted entries
//   - reward      Record and list signed reward entries
//   - disconnect  Tear down the session and wipe local state
//
// # Implementation
//
// The root command loads journal.toml and builds the dependency graph
// (store, relay client, signer, services) before any subcommand runs, so
// handlers share one app context.
package commands
