package notes_test

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/services/notes"
	"github.com/mmilam360/relaysigner/internal/store"
)

// stubSigner stands in for a connected session: it "encrypts" reversibly so
// tests can assert plaintext never reaches the store.
type stubSigner struct {
	id domain.ClientIdentity
}

func (s *stubSigner) GetIdentity(context.Context) (string, error) { return s.id.Pub.Hex(), nil }

func (s *stubSigner) Sign(_ context.Context, ev domain.JournalEvent) (domain.JournalEvent, error) {
	return crypto.SignEvent(s.id, ev), nil
}

func (s *stubSigner) Encrypt(_ context.Context, _ domain.PublicKey, pt string) (string, error) {
	return "sealed:" + hex.EncodeToString([]byte(pt)), nil
}

func (s *stubSigner) Decrypt(_ context.Context, _ domain.PublicKey, ct string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(ct, "sealed:"))
	return string(raw), err
}

func newFixture(t *testing.T) (*notes.Service, *store.Bolt) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	return notes.New(&stubSigner{id: id}, st), st
}

func TestAddStoresOnlyCiphertext(t *testing.T) {
	svc, st := newFixture(t)
	ctx := context.Background()

	n, err := svc.Add(ctx, "monday", "slept badly")
	require.NoError(t, err)

	stored, found, err := st.GetNote(n.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "monday", stored.Title)
	require.NotContains(t, stored.Ciphertext, "slept badly")

	body, err := svc.Read(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, "slept badly", body)
}

func TestListNewestFirst(t *testing.T) {
	svc, st := newFixture(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Add(ctx, title, "body "+title)
		require.NoError(t, err)
	}
	// Force distinct timestamps without sleeping.
	all, err := st.ListNotes()
	require.NoError(t, err)
	for i := range all {
		all[i].CreatedAt = int64(i)
		require.NoError(t, st.SaveNote(all[i]))
	}

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Greater(t, got[0].CreatedAt, got[2].CreatedAt)
}

func TestReadMissingNote(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Read(context.Background(), "nope")
	require.ErrorContains(t, err, "not found")
}

func TestDelete(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	n, err := svc.Add(ctx, "t", "b")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, n.ID))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}
