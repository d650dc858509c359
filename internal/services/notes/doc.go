// Package notes stores journal entries encrypted through the signer session.
// Note bodies are encrypted by the key holder to itself, so the journal
// database alone can never reveal a plaintext.
package notes
