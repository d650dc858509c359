package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// Service records reward entries signed by the key holder.
type Service struct {
	signer domain.Signer
	store  domain.RewardStore
}

func New(signerSvc domain.Signer, rewardStore domain.RewardStore) *Service {
	return &Service{signer: signerSvc, store: rewardStore}
}

// Record builds a reward event, has the key holder sign it, and appends it
// to the ledger.
func (s *Service) Record(ctx context.Context, points int, reason string) (domain.RewardEntry, error) {
	content, err := json.Marshal(map[string]any{"points": points, "reason": reason})
	if err != nil {
		return domain.RewardEntry{}, err
	}
	signed, err := s.signer.Sign(ctx, domain.JournalEvent{
		CreatedAt: time.Now().Unix(),
		Kind:      domain.KindReward,
		Content:   string(content),
	})
	if err != nil {
		return domain.RewardEntry{}, fmt.Errorf("sign reward: %w", err)
	}
	evJSON, err := json.Marshal(signed)
	if err != nil {
		return domain.RewardEntry{}, err
	}

	e := domain.RewardEntry{
		ID:        signed.ID,
		Points:    points,
		Reason:    reason,
		CreatedAt: signed.CreatedAt,
		EventJSON: string(evJSON),
	}
	if err := s.store.AppendReward(e); err != nil {
		return domain.RewardEntry{}, err
	}
	return e, nil
}

// List returns all recorded entries in append order.
func (s *Service) List(ctx context.Context) ([]domain.RewardEntry, error) {
	return s.store.ListRewards()
}
