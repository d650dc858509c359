package domain

// JournalEvent is the canonical signable unit exchanged with the key holder.
// ID and Sig are filled in by the holder; the remaining fields are supplied
// by the caller.
type JournalEvent struct {
	ID        string `json:"id,omitempty"`
	Pubkey    string `json:"pubkey,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Content   string `json:"content"`
	Sig       string `json:"sig,omitempty"`
}

// Journal event kinds.
const (
	KindNote   = 1
	KindReward = 7001
)

// Note is one encrypted journal entry at rest. Body ciphertext is produced by
// the key holder via the encrypt operation; the plaintext never touches disk.
type Note struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Ciphertext string `json:"ciphertext"`
	CreatedAt  int64  `json:"created_at"`
}

// RewardEntry is one signed, append-only reward ledger line. Balance
// accounting over entries is out of scope.
type RewardEntry struct {
	ID        string `json:"id"`
	Points    int    `json:"points"`
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"created_at"`
	EventJSON string `json:"event_json"`
}
