// Package gate keeps one upgrade-gate state per dashboard session.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	domgate "github.com/jobxpress/creditgate/internal/domain/gate"
	"github.com/jobxpress/creditgate/internal/metrics"
)

// View is what a client renders for a session.
type View struct {
	SessionID      string
	IsOpen         bool
	Snapshot       *credits.Snapshot
	Countdown      credits.Countdown
	PaymentLinkURL string
}

type session struct {
	mu    sync.Mutex
	owner string
	state domgate.State
}

// Service owns the gate sessions. Sessions live in process memory only and
// expire after ttl without access.
type Service struct {
	sessions *ttlcache.Cache[string, *session]

	credits     CreditsSource
	paymentLink string
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a gate session service. ttl <= 0 disables idle eviction.
func New(src CreditsSource, paymentLink string, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl < 0 {
		ttl = 0
	}
	s := &Service{
		sessions:    ttlcache.New[string, *session](ttlcache.WithTTL[string, *session](ttl)),
		credits:     src,
		paymentLink: paymentLink,
		logger:      logger,
		now:         time.Now,
	}
	s.sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *session]) {
		metrics.GateSessions.Dec()
		if reason == ttlcache.EvictionReasonExpired {
			logger.Debug("Evicted idle gate session", zap.String("session_id", item.Key()))
		}
	})
	return s
}

// WithClock overrides the time source used for countdowns.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start opens a new closed session for owner and returns its id.
func (s *Service) Start(_ context.Context, owner string) string {
	id := uuid.NewString()
	s.sessions.Set(id, &session{owner: owner}, ttlcache.DefaultTTL)
	metrics.GateSessions.Inc()
	return id
}

// Owner returns the user a session belongs to.
func (s *Service) Owner(_ context.Context, sid string) (string, error) {
	sess, err := s.get(sid)
	if err != nil {
		return "", err
	}
	return sess.owner, nil
}

// State returns the current view of a session.
func (s *Service) State(_ context.Context, sid string) (View, error) {
	return s.update(sid, func(st domgate.State) domgate.State { return st })
}

// Open shows the prompt. A nil snapshot keeps the stored one.
func (s *Service) Open(_ context.Context, sid string, snapshot *credits.Snapshot) (View, error) {
	return s.update(sid, func(st domgate.State) domgate.State { return st.Open(snapshot) })
}

// Close hides the prompt. Escape key and overlay click both end up here.
func (s *Service) Close(_ context.Context, sid string) (View, error) {
	return s.update(sid, domgate.State.Close)
}

// CheckAndOpen opens the prompt when the snapshot is gated and reports whether it did.
func (s *Service) CheckAndOpen(_ context.Context, sid string, snapshot credits.Snapshot) (View, bool, error) {
	var opened bool
	v, err := s.update(sid, func(st domgate.State) domgate.State {
		st, opened = st.CheckAndOpen(snapshot)
		return st
	})
	if err != nil {
		return View{}, false, err
	}

	result := "passed"
	if opened {
		result = "gated"
	}
	metrics.GateChecksTotal.WithLabelValues(result).Inc()
	return v, opened, nil
}

// CheckUser fetches the owner's snapshot from billing and runs CheckAndOpen.
func (s *Service) CheckUser(ctx context.Context, sid, userID string) (View, bool, error) {
	owner, err := s.Owner(ctx, sid)
	if err != nil {
		return View{}, false, err
	}
	if owner != "" && owner != userID {
		return View{}, false, domain.ErrSessionNotFound
	}

	snap, err := s.credits.Snapshot(ctx, userID)
	if err != nil {
		return View{}, false, fmt.Errorf("credit snapshot: %w", err)
	}
	v, opened, err := s.CheckAndOpen(ctx, sid, snap)
	if err != nil {
		return View{}, false, err
	}
	if opened {
		s.logger.Info("Upgrade gate opened",
			zap.String("session_id", sid),
			zap.String("user_id", userID),
			zap.String("plan", string(snap.Plan())),
		)
	}
	return v, opened, nil
}

// End drops a session and its state.
func (s *Service) End(_ context.Context, sid string) error {
	if _, err := s.get(sid); err != nil {
		return err
	}
	s.sessions.Delete(sid)
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	return s.sessions.Len()
}

// Run expires idle sessions in the background until ctx is done.
func (s *Service) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.sessions.Stop()
	}()
	s.sessions.Start()
}

// Sweep drops every session that is past its idle deadline.
func (s *Service) Sweep() {
	s.sessions.DeleteExpired()
}

func (s *Service) update(sid string, fn func(domgate.State) domgate.State) (View, error) {
	sess, err := s.get(sid)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state = fn(sess.state)
	return s.view(sid, sess.state), nil
}

// get returns a live session and extends its idle deadline.
func (s *Service) get(sid string) (*session, error) {
	item := s.sessions.Get(sid)
	if item == nil {
		return nil, domain.ErrSessionNotFound
	}
	return item.Value(), nil
}

func (s *Service) view(sid string, st domgate.State) View {
	v := View{
		SessionID:      sid,
		IsOpen:         st.IsOpen(),
		Countdown:      credits.Countdown{Kind: credits.Unknown},
		PaymentLinkURL: s.paymentLink,
	}
	if snap, ok := st.Snapshot(); ok {
		v.Snapshot = &snap
		v.Countdown = credits.TimeUntilReset(snap, s.now())
	}
	return v
}
