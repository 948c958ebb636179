package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/ops-console-engine/internal/core/domain"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// ReplyPollerConfig bounds the polling loop. The ceiling is attempt
// based, not wall-clock based: a hung fetch delays the next attempt,
// since the inter-poll delay is scheduled only after the previous
// attempt settles.
type ReplyPollerConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

// DefaultReplyPollerConfig returns the production schedule: first poll
// after 2 seconds, then every 5 seconds, 60 empty attempts before
// giving up (a five minute ceiling).
func DefaultReplyPollerConfig() ReplyPollerConfig {
	return ReplyPollerConfig{
		InitialDelay: 2 * time.Second,
		Interval:     5 * time.Second,
		MaxAttempts:  60,
	}
}

// pollSession tracks one thread's polling loop and merged reply list.
type pollSession struct {
	state   ports.PollState
	replies []domain.Reply
	seen    map[string]bool
	cancel  context.CancelFunc
}

// ReplyPoller watches external staff threads for replies. Finding a
// reply does not stop the loop: staff may send several messages, so
// polling continues until the empty-attempt ceiling or an explicit
// StopPolling.
type ReplyPoller struct {
	gateway     ports.ThreadGateway
	broadcaster ports.EventBroadcaster
	cfg         ReplyPollerConfig
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*pollSession
}

var _ ports.ThreadWatcher = (*ReplyPoller)(nil)

// NewReplyPoller creates the poller. broadcaster may be nil. Zero
// config fields fall back to the production schedule.
func NewReplyPoller(gateway ports.ThreadGateway, broadcaster ports.EventBroadcaster, cfg ReplyPollerConfig, logger *slog.Logger) *ReplyPoller {
	def := DefaultReplyPollerConfig()
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &ReplyPoller{
		gateway:     gateway,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger.With("component", "reply_poller"),
		sessions:    make(map[string]*pollSession),
	}
}

// StartPolling begins the bounded loop for the thread. A second call
// while the thread's loop is live is a no-op.
func (p *ReplyPoller) StartPolling(threadTS string) error {
	if threadTS == "" {
		return apperrors.ErrThreadRequired
	}

	p.mu.Lock()
	session, ok := p.sessions[threadTS]
	if ok && (session.state == ports.PollPolling || session.state == ports.PollFound) && session.cancel != nil {
		p.mu.Unlock()
		return nil
	}
	if session == nil {
		session = &pollSession{state: ports.PollIdle, seen: make(map[string]bool)}
		p.sessions[threadTS] = session
	}
	ctx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel
	session.state = ports.PollPolling
	p.mu.Unlock()

	p.logger.Info("polling started", "thread_ts", threadTS)
	go p.run(ctx, threadTS)
	return nil
}

// StopPolling cancels the thread's loop. The merged reply list is kept
// so the view can still render what was found.
func (p *ReplyPoller) StopPolling(threadTS string) {
	p.mu.Lock()
	session, ok := p.sessions[threadTS]
	if ok && session.cancel != nil {
		session.cancel()
		session.cancel = nil
		session.state = ports.PollIdle
	}
	p.mu.Unlock()
}

// State reports the thread's polling state.
func (p *ReplyPoller) State(threadTS string) ports.PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if session, ok := p.sessions[threadTS]; ok {
		return session.state
	}
	return ports.PollIdle
}

// Replies returns the merged reply list for the thread, arrival order.
func (p *ReplyPoller) Replies(threadTS string) []domain.Reply {
	p.mu.Lock()
	defer p.mu.Unlock()
	session, ok := p.sessions[threadTS]
	if !ok {
		return nil
	}
	return append([]domain.Reply(nil), session.replies...)
}

// SendReply appends the text to the local reply list before the
// gateway confirms it, then posts it. A failed post is surfaced to the
// caller but the optimistic append stays: the next merge from the
// thread is what reconciles local state with reality.
func (p *ReplyPoller) SendReply(ctx context.Context, threadTS, text string) error {
	if threadTS == "" {
		return apperrors.ErrThreadRequired
	}
	if text == "" {
		return apperrors.ErrReplyRequired
	}

	reply := domain.Reply{
		Ts:        "local-" + uuid.NewString(),
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Self:      true,
	}

	p.mu.Lock()
	session, ok := p.sessions[threadTS]
	if !ok {
		session = &pollSession{state: ports.PollIdle, seen: make(map[string]bool)}
		p.sessions[threadTS] = session
	}
	session.replies = append(session.replies, reply)
	session.seen[reply.Ts] = true
	p.mu.Unlock()

	p.broadcast(threadTS)

	if err := p.gateway.SendReply(ctx, threadTS, text); err != nil {
		p.logger.Error("reply send failed", "thread_ts", threadTS, "error", err)
		return err
	}
	return nil
}

func (p *ReplyPoller) run(ctx context.Context, threadTS string) {
	if !sleep(ctx, p.cfg.InitialDelay) {
		return
	}

	attempts := 0
	for {
		replies, err := p.gateway.Replies(ctx, threadTS)
		if ctx.Err() != nil {
			return
		}

		if err == nil && len(replies) > 0 {
			if p.merge(threadTS, replies) {
				p.broadcast(threadTS)
			}
			p.setState(threadTS, ports.PollFound)
		} else {
			if err != nil {
				p.logger.Debug("reply fetch attempt failed", "thread_ts", threadTS, "error", err)
			}
			attempts++
			if attempts >= p.cfg.MaxAttempts {
				// Give up silently: the view just stops showing the
				// waiting indicator.
				p.setState(threadTS, ports.PollTimedOut)
				p.logger.Info("polling timed out", "thread_ts", threadTS, "attempts", attempts)
				return
			}
		}

		if !sleep(ctx, p.cfg.Interval) {
			return
		}
	}
}

// merge appends unseen replies, keyed by ts, and reports whether
// anything new arrived.
func (p *ReplyPoller) merge(threadTS string, fetched []domain.Reply) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[threadTS]
	if !ok {
		return false
	}
	added := false
	for _, reply := range fetched {
		if session.seen[reply.Ts] {
			continue
		}
		session.seen[reply.Ts] = true
		session.replies = append(session.replies, reply)
		added = true
	}
	return added
}

func (p *ReplyPoller) setState(threadTS string, state ports.PollState) {
	p.mu.Lock()
	if session, ok := p.sessions[threadTS]; ok {
		session.state = state
		if state == ports.PollTimedOut {
			session.cancel = nil
		}
	}
	p.mu.Unlock()
}

func (p *ReplyPoller) broadcast(threadTS string) {
	if p.broadcaster == nil {
		return
	}
	count := len(p.Replies(threadTS))
	err := p.broadcaster.Broadcast(domain.Event{
		Type:     domain.EventRepliesUpdated,
		ThreadTS: threadTS,
		Payload:  count,
	})
	if err != nil {
		p.logger.Warn("reply event broadcast failed", "thread_ts", threadTS, "error", err)
	}
}

// sleep waits for d or until the context is cancelled. It returns
// false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
