package domain

import "context"

// RelayClient is how we talk to the relay network. Publish succeeds when at
// least one relay accepts the envelope; if every relay refuses it returns
// ErrTransportUnavailable. Subscribe merges streams from all relays into a
// single channel and makes no dedupe or ordering promises.
type RelayClient interface {
	Publish(ctx context.Context, env Envelope, relays []string) error
	Subscribe(ctx context.Context, f Filter, relays []string) (Subscription, error)
}

// Subscription is a live envelope stream. Close releases the stream and its
// backing connections; the channel is closed afterwards.
type Subscription interface {
	Envelopes() <-chan Envelope
	Close()
}

// SessionStore persists at most one serialized signer session.
type SessionStore interface {
	SaveSession(passphrase string, rec SessionRecord) error
	LoadSession(passphrase string) (SessionRecord, bool, error)
	ClearSession() error
}

// NoteStore persists encrypted journal entries.
type NoteStore interface {
	SaveNote(n Note) error
	GetNote(id string) (Note, bool, error)
	ListNotes() ([]Note, error)
	DeleteNote(id string) error
}

// RewardStore is an append-only log of signed reward entries.
type RewardStore interface {
	AppendReward(e RewardEntry) error
	ListRewards() ([]RewardEntry, error)
}

// Signer is the caller-facing operation surface of an established session.
// Callers never see handshake state; every method fails with
// ErrNoActiveSession outside the connected state.
type Signer interface {
	GetIdentity(ctx context.Context) (string, error)
	Sign(ctx context.Context, ev JournalEvent) (JournalEvent, error)
	Encrypt(ctx context.Context, to PublicKey, plaintext string) (string, error)
	Decrypt(ctx context.Context, from PublicKey, ciphertext string) (string, error)
}
