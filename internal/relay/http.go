package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/domain"
)

const (
	publishAttempts = 2
	publishRetryMin = 250 * time.Millisecond
	pollWait        = 20 * time.Second
	pollBackoffMin  = 500 * time.Millisecond
	pollBackoffMax  = 15 * time.Second
)

// HTTP talks JSON over HTTP to one or more relay endpoints. Relay base URLs
// are supplied per call so one client serves every session.
type HTTP struct {
	hc  *http.Client
	log zerolog.Logger
}

// NewHTTP returns a relay client using hc, or http.DefaultClient when nil.
func NewHTTP(hc *http.Client, log zerolog.Logger) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{hc: hc, log: log}
}

var _ domain.RelayClient = (*HTTP)(nil)

// Publish offers env to every relay in the set. Each relay gets a bounded
// retry; the call succeeds as soon as one relay has accepted. Only when all
// relays refuse does it return ErrTransportUnavailable.
func (c *HTTP) Publish(ctx context.Context, env domain.Envelope, relays []string) error {
	accepted := 0
	for _, base := range relays {
		err := retry(ctx, publishAttempts, publishRetryMin, func() error {
			return c.post(ctx, base+"/publish", env)
		})
		if err != nil {
			c.log.Debug().Str("relay", base).Err(err).Msg("relay refused publish")
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("publish to %d relays: %w", len(relays), domain.ErrTransportUnavailable)
	}
	return nil
}

// Subscribe starts one polling loop per relay and merges their envelopes into
// a single stream. Duplicates across relays are passed through untouched;
// dedupe belongs to the protocol layer.
func (c *HTTP) Subscribe(ctx context.Context, f domain.Filter, relays []string) (domain.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		ch:     make(chan domain.Envelope, 64),
		cancel: cancel,
	}
	for _, base := range relays {
		s.wg.Add(1)
		go c.pollLoop(ctx, base, f, s)
	}
	go func() {
		s.wg.Wait()
		close(s.ch)
	}()
	return s, nil
}

func (c *HTTP) pollLoop(ctx context.Context, base string, f domain.Filter, s *subscription) {
	defer s.wg.Done()
	bo := newBackoff(pollBackoffMin, pollBackoffMax)
	cursor := int64(0)
	for {
		if ctx.Err() != nil {
			return
		}
		url := fmt.Sprintf("%s/poll?tag=%s&cursor=%d&after=%d&wait=%d",
			base, f.Tag.Hex(), cursor, f.Since, int(pollWait.Seconds()))
		var res pollResult
		if err := c.getJSON(ctx, url, &res); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Str("relay", base).Err(err).Msg("poll failed, backing off")
			select {
			case <-ctx.Done():
				return
			case <-time.After(bo.next()):
			}
			continue
		}
		bo.reset()
		if res.Seq > cursor {
			cursor = res.Seq
		}
		for _, env := range res.Envelopes {
			select {
			case s.ch <- env:
			case <-ctx.Done():
				return
			}
		}
	}
}

// pollResult is the relay's poll response body.
type pollResult struct {
	Seq       int64             `json:"seq"`
	Envelopes []domain.Envelope `json:"envelopes"`
}

type subscription struct {
	ch     chan domain.Envelope
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *subscription) Envelopes() <-chan domain.Envelope { return s.ch }

func (s *subscription) Close() {
	s.once.Do(s.cancel)
}

func (c *HTTP) post(ctx context.Context, url string, in any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", url, resp.Status)
	}
	return nil
}

func (c *HTTP) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
