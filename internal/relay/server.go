package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/domain"
)

const serverMaxWait = 25 * time.Second

// Server is a minimal single-process relay endpoint: it stores envelopes
// per addressing tag and serves them to pollers by cursor. It keeps
// everything in memory; durability is a non-goal for the dev relay.
type Server struct {
	mu     sync.Mutex
	seq    int64
	byTag  map[string][]stored
	notify map[string]chan struct{}
	log    zerolog.Logger
	mux    *http.ServeMux
}

type stored struct {
	seq int64
	env domain.Envelope
}

func NewServer(log zerolog.Logger) *Server {
	s := &Server{
		byTag:  make(map[string][]stored),
		notify: make(map[string]chan struct{}),
		log:    log,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /publish", s.handlePublish)
	s.mux.HandleFunc("GET /poll", s.handlePoll)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Refuse envelopes whose id or signature does not check out; the relay
	// cannot read them but it can keep obvious junk out of the store.
	if env.ID != channel.EnvelopeID(env) || env.Sig == "" || env.Tag.IsZero() {
		http.Error(w, "malformed envelope", http.StatusBadRequest)
		return
	}

	tag := env.Tag.Hex()
	s.mu.Lock()
	s.seq++
	s.byTag[tag] = append(s.byTag[tag], stored{seq: s.seq, env: env})
	if ch, ok := s.notify[tag]; ok {
		close(ch)
		delete(s.notify, tag)
	}
	s.mu.Unlock()

	s.log.Debug().Str("tag", tag[:16]).Str("envelope", env.ID[:16]).Msg("stored envelope")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tag := q.Get("tag")
	cursor, _ := strconv.ParseInt(q.Get("cursor"), 10, 64)
	after, _ := strconv.ParseInt(q.Get("after"), 10, 64)
	waitSec, _ := strconv.Atoi(q.Get("wait"))

	wait := time.Duration(waitSec) * time.Second
	if wait > serverMaxWait {
		wait = serverMaxWait
	}
	deadline := time.Now().Add(wait)

	for {
		res, notify := s.collect(tag, cursor, after)
		if len(res.Envelopes) > 0 || time.Now().After(deadline) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(res)
			return
		}
		remaining := time.Until(deadline)
		select {
		case <-notify:
		case <-time.After(remaining):
		case <-r.Context().Done():
			return
		}
	}
}

// collect returns matching envelopes newer than cursor plus the notify
// channel a poller can wait on when there is nothing yet.
func (s *Server) collect(tag string, cursor, after int64) (pollResult, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := pollResult{Seq: s.seq}
	for _, st := range s.byTag[tag] {
		if st.seq <= cursor || st.env.CreatedAt < after {
			continue
		}
		res.Envelopes = append(res.Envelopes, st.env)
	}
	ch, ok := s.notify[tag]
	if !ok {
		ch = make(chan struct{})
		s.notify[tag] = ch
	}
	return res, ch
}
