package domain

import "encoding/json"

// Envelope is the transport-level message carried by the relays. It is
// write-once: produced by the encrypted channel, consumed verbatim by the
// relay network. Ciphertext is base64, Sig is hex over the ID digest.
type Envelope struct {
	ID         string    `json:"id"`
	Sender     PublicKey `json:"sender"`
	Tag        PublicKey `json:"tag"`
	CreatedAt  int64     `json:"created_at"`
	Ciphertext string    `json:"ciphertext"`
	Sig        string    `json:"sig"`
}

// Filter selects the envelopes a subscription receives.
type Filter struct {
	Tag   PublicKey
	Since int64
}

// Request is the plaintext payload of a request envelope.
type Request struct {
	ID     string   `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

// Response is the plaintext payload of a response envelope. Exactly one of
// Result or Error is set.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError carries a remote-supplied failure reason.
type ResponseError struct {
	Message string `json:"message"`
}

// Methods understood by the key holder.
const (
	MethodConnect     = "connect"
	MethodGetIdentity = "get_identity"
	MethodSign        = "sign"
	MethodEncrypt     = "encrypt"
	MethodDecrypt     = "decrypt"
)
