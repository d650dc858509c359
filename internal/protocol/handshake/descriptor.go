package handshake

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// Descriptor URI schemes. Both variants are plain strings meant for
// out-of-band transfer (copy/paste or a QR rendering done elsewhere).
const (
	schemeLocal  = "signerconnect" // variant A: client advertises itself
	schemeRemote = "keyholder"     // variant B: holder advertises itself
)

// LocalDescriptor is the variant A payload: everything a key holder needs to
// approve a locally-initiated connection.
type LocalDescriptor struct {
	ClientPub   domain.PublicKey
	Relays      []string
	Metadata    domain.AppMetadata
	Permissions []string
}

func (d LocalDescriptor) String() string {
	q := url.Values{}
	for _, r := range d.Relays {
		q.Add("relay", r)
	}
	if d.Metadata.Name != "" {
		q.Set("name", d.Metadata.Name)
	}
	if d.Metadata.Description != "" {
		q.Set("description", d.Metadata.Description)
	}
	if len(d.Permissions) > 0 {
		q.Set("perms", strings.Join(d.Permissions, ","))
	}
	return schemeLocal + "://" + d.ClientPub.Hex() + "?" + q.Encode()
}

// ParseLocalDescriptor decodes a variant A URI, typically on the holder side.
func ParseLocalDescriptor(s string) (LocalDescriptor, error) {
	u, pub, relays, err := parseCommon(s, schemeLocal)
	if err != nil {
		return LocalDescriptor{}, err
	}
	d := LocalDescriptor{
		ClientPub: pub,
		Relays:    relays,
		Metadata: domain.AppMetadata{
			Name:        u.Query().Get("name"),
			Description: u.Query().Get("description"),
		},
	}
	if p := u.Query().Get("perms"); p != "" {
		d.Permissions = strings.Split(p, ",")
	}
	return d, nil
}

// RemoteDescriptor is the variant B payload: the key holder's identity, its
// relay set, and optional pre-shared secret material.
type RemoteDescriptor struct {
	RemotePub domain.PublicKey
	Relays    []string
	Secret    string
}

func (d RemoteDescriptor) String() string {
	q := url.Values{}
	for _, r := range d.Relays {
		q.Add("relay", r)
	}
	if d.Secret != "" {
		q.Set("secret", d.Secret)
	}
	return schemeRemote + "://" + d.RemotePub.Hex() + "?" + q.Encode()
}

// ParseRemoteDescriptor decodes a variant B URI supplied by the key holder.
// Malformed input fails with ErrInvalidDescriptor.
func ParseRemoteDescriptor(s string) (RemoteDescriptor, error) {
	u, pub, relays, err := parseCommon(s, schemeRemote)
	if err != nil {
		return RemoteDescriptor{}, err
	}
	return RemoteDescriptor{
		RemotePub: pub,
		Relays:    relays,
		Secret:    u.Query().Get("secret"),
	}, nil
}

func parseCommon(s, scheme string) (*url.URL, domain.PublicKey, []string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, domain.PublicKey{}, nil, fmt.Errorf("%w: %v", domain.ErrInvalidDescriptor, err)
	}
	if u.Scheme != scheme {
		return nil, domain.PublicKey{}, nil, fmt.Errorf("%w: want scheme %q, got %q", domain.ErrInvalidDescriptor, scheme, u.Scheme)
	}
	pub, err := domain.ParsePublicKey(u.Host)
	if err != nil {
		return nil, domain.PublicKey{}, nil, fmt.Errorf("%w: %v", domain.ErrInvalidDescriptor, err)
	}
	relays := u.Query()["relay"]
	if len(relays) == 0 {
		return nil, domain.PublicKey{}, nil, fmt.Errorf("%w: no relays", domain.ErrInvalidDescriptor)
	}
	return u, pub, relays, nil
}
