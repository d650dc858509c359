package relay

import (
	"context"
	"sync"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// Memory is an in-process relay network. Each relay name in a publish or
// subscribe set acts as an independent logical endpoint: an envelope is
// delivered once per relay name the publisher and subscriber share, which
// reproduces the duplicate delivery real multi-relay setups exhibit.
type Memory struct {
	mu   sync.Mutex
	subs []*memSub
}

func NewMemory() *Memory { return &Memory{} }

var _ domain.RelayClient = (*Memory)(nil)

func (m *Memory) Publish(_ context.Context, env domain.Envelope, relays []string) error {
	if len(relays) == 0 {
		return domain.ErrTransportUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.tag != env.Tag {
			continue
		}
		for _, r := range relays {
			if _, ok := s.relays[r]; !ok {
				continue
			}
			select {
			case s.ch <- env:
			default: // slow subscriber loses messages, like a real relay
			}
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, f domain.Filter, relays []string) (domain.Subscription, error) {
	s := &memSub{
		m:      m,
		tag:    f.Tag,
		relays: make(map[string]struct{}, len(relays)),
		ch:     make(chan domain.Envelope, 64),
	}
	for _, r := range relays {
		s.relays[r] = struct{}{}
	}
	m.mu.Lock()
	m.subs = append(m.subs, s)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s, nil
}

type memSub struct {
	m      *Memory
	tag    domain.PublicKey
	relays map[string]struct{}
	ch     chan domain.Envelope
	once   sync.Once
}

func (s *memSub) Envelopes() <-chan domain.Envelope { return s.ch }

func (s *memSub) Close() {
	s.once.Do(func() {
		s.m.mu.Lock()
		for i, other := range s.m.subs {
			if other == s {
				s.m.subs = append(s.m.subs[:i], s.m.subs[i+1:]...)
				break
			}
		}
		s.m.mu.Unlock()
		close(s.ch)
	})
}
