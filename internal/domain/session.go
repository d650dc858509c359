package domain

// State is the signer session lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// AppMetadata describes this application to the key holder during a
// locally-initiated handshake.
type AppMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Session is the durable result of a successful handshake.
type Session struct {
	Client ClientIdentity
	Remote PublicKey
	Relays []string
}

// SessionRecord is the persisted form of a Session.
type SessionRecord struct {
	ClientSecretHex string    `json:"client_secret_hex"`
	RemotePublic    PublicKey `json:"remote_public"`
	Relays          []string  `json:"relays"`
}
