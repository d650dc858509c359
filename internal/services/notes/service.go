package notes

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
)

// Service is CRUD glue between the note store and the signer operation
// surface; it holds no protocol state of its own.
type Service struct {
	signer domain.Signer
	store  domain.NoteStore
}

func New(signerSvc domain.Signer, noteStore domain.NoteStore) *Service {
	return &Service{signer: signerSvc, store: noteStore}
}

// Add encrypts body via the key holder and persists the entry. The holder
// encrypts to its own identity, so only it can ever open the note again.
func (s *Service) Add(ctx context.Context, title, body string) (domain.Note, error) {
	identity, err := s.signer.GetIdentity(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	holderPub, err := domain.ParsePublicKey(identity)
	if err != nil {
		return domain.Note{}, fmt.Errorf("holder identity: %w", err)
	}
	ct, err := s.signer.Encrypt(ctx, holderPub, body)
	if err != nil {
		return domain.Note{}, err
	}

	n := domain.Note{
		ID:         crypto.NewRequestID(),
		Title:      title,
		Ciphertext: ct,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.store.SaveNote(n); err != nil {
		return domain.Note{}, err
	}
	return n, nil
}

// Read decrypts one entry via the key holder.
func (s *Service) Read(ctx context.Context, id string) (string, error) {
	n, found, err := s.store.GetNote(id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("note %s not found", id)
	}
	identity, err := s.signer.GetIdentity(ctx)
	if err != nil {
		return "", err
	}
	holderPub, err := domain.ParsePublicKey(identity)
	if err != nil {
		return "", fmt.Errorf("holder identity: %w", err)
	}
	return s.signer.Decrypt(ctx, holderPub, n.Ciphertext)
}

// List returns entry metadata, newest first. Bodies stay encrypted.
func (s *Service) List(ctx context.Context) ([]domain.Note, error) {
	all, err := s.store.ListNotes()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt > all[j].CreatedAt })
	return all, nil
}

// Delete removes one entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteNote(id)
}
