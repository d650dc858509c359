package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmilam360/relaysigner/internal/domain"
)

var (
	bucketSession = []byte("session")
	bucketNotes   = []byte("notes")
	bucketRewards = []byte("rewards")

	keySession = []byte("current")
)

// Bolt is the bbolt-backed store behind the session record, journal notes,
// and the reward log.
type Bolt struct {
	db *bolt.DB
}

// Open opens (creating if needed) the store file at path.
func Open(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketSession, bucketNotes, bucketRewards} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (s *Bolt) Close() error { return s.db.Close() }

var (
	_ domain.SessionStore = (*Bolt)(nil)
	_ domain.NoteStore    = (*Bolt)(nil)
	_ domain.RewardStore  = (*Bolt)(nil)
)

// ---------- Session record ----------

func (s *Bolt) SaveSession(passphrase string, rec domain.SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	sealed, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keySession, sealed)
	})
}

func (s *Bolt) LoadSession(passphrase string) (domain.SessionRecord, bool, error) {
	var sealed []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSession).Get(keySession); v != nil {
			sealed = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return domain.SessionRecord{}, false, err
	}
	if sealed == nil {
		return domain.SessionRecord{}, false, nil
	}
	raw, err := open(passphrase, sealed)
	if err != nil {
		return domain.SessionRecord{}, false, err
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.SessionRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Bolt) ClearSession() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Delete(keySession)
	})
}

// ---------- Notes ----------

func (s *Bolt) SaveNote(n domain.Note) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotes).Put([]byte(n.ID), raw)
	})
}

func (s *Bolt) GetNote(id string) (domain.Note, bool, error) {
	var n domain.Note
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketNotes).Get([]byte(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &n)
	})
	return n, found, err
}

func (s *Bolt) ListNotes() ([]domain.Note, error) {
	var out []domain.Note
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotes).ForEach(func(_, v []byte) error {
			var n domain.Note
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			out = append(out, n)
			return nil
		})
	})
	return out, err
}

func (s *Bolt) DeleteNote(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotes).Delete([]byte(id))
	})
}

// ---------- Rewards ----------

func (s *Bolt) AppendReward(e domain.RewardEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRewards)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return b.Put(key[:], raw)
	})
}

func (s *Bolt) ListRewards() ([]domain.RewardEntry, error) {
	var out []domain.RewardEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRewards).ForEach(func(_, v []byte) error {
			var e domain.RewardEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}
