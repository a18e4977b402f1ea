// Package subscription owns the lifecycle of the transaction stream
// subscription: initial subscribe, periodic re-assertion, and crash-only
// restart on anything fatal.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"nftwatch/internal/model"
)

// DefaultRefreshInterval is how often the subscription is re-asserted.
// Some servers silently drop long-lived subscriptions; subscribing again
// without unsubscribing is harmless, so the refresh is idempotent.
const DefaultRefreshInterval = 10 * time.Minute

// Session is one live connection to the stream server.
type Session interface {
	Subscribe(ctx context.Context, id string) error
	Unsubscribe(ctx context.Context, id string) error
	Transactions() <-chan model.Transaction
	Errs() <-chan error
	Close()
}

// Handler processes one transaction. A non-nil error is treated as fatal to
// the session; handlers resolve every expected condition internally.
type Handler func(ctx context.Context, tx model.Transaction) error

// SessionFactory builds a fresh session and its transaction handler. It is
// called on every (re)start so that downstream clients are rebuilt too.
type SessionFactory func(ctx context.Context) (Session, Handler, error)

// Manager drives the subscribe / refresh / restart loop. The sequence number
// and refresh timer are owned here and die with the session.
type Manager struct {
	factory  SessionFactory
	interval time.Duration
	logger   *zap.Logger

	seq uint64

	// test seam
	newTicker func(time.Duration) refreshTicker
}

type refreshTicker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

// NewManager builds a Manager. A zero interval selects the default.
func NewManager(factory SessionFactory, interval time.Duration, logger *zap.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		factory:  factory,
		interval: interval,
		logger:   logger,
		newTicker: func(d time.Duration) refreshTicker {
			return realTicker{time.NewTicker(d)}
		},
	}
}

// Run blocks until the context is cancelled. Each pass connects, subscribes,
// and serves; any fatal fault releases the refresh timer, closes the session
// and starts over from scratch.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sess, handler, err := m.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Error("connect failed", zap.Error(err))
			continue
		}

		err = m.serve(ctx, sess, handler)
		sess.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.logger.Error("session faulted, restarting", zap.Error(err))
	}
}

func (m *Manager) connect(ctx context.Context) (Session, Handler, error) {
	var (
		sess    Session
		handler Handler
	)
	err := retry.Do(
		func() error {
			var err error
			sess, handler, err = m.factory(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			m.logger.Warn("connect retry", zap.Uint("attempt", n), zap.Error(err))
		}),
	)
	return sess, handler, err
}

func (m *Manager) serve(ctx context.Context, sess Session, handler Handler) error {
	m.seq = 0
	if err := sess.Subscribe(ctx, m.requestID("subscribe", m.seq)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	m.logger.Info("subscribed to transaction stream", zap.Duration("refresh_interval", m.interval))

	ticker := m.newTicker(m.interval)
	stopped := false
	stopTicker := func() {
		if !stopped {
			ticker.Stop()
			stopped = true
		}
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			stopTicker()
			return ctx.Err()

		case <-ticker.C():
			if err := m.refresh(ctx, sess); err != nil {
				stopTicker()
				return err
			}

		case tx, ok := <-sess.Transactions():
			if !ok {
				stopTicker()
				return fmt.Errorf("transaction stream closed")
			}
			if err := handler(ctx, tx); err != nil {
				stopTicker()
				return fmt.Errorf("handle %s: %w", tx.Hash, err)
			}

		case err := <-sess.Errs():
			stopTicker()
			return err
		}
	}
}

// refresh re-asserts the subscription. The unsubscribe is a courtesy only:
// its failure is logged and ignored, while a failed subscribe is fatal
// because the stream can no longer be trusted.
func (m *Manager) refresh(ctx context.Context, sess Session) error {
	m.seq++

	if err := sess.Unsubscribe(ctx, m.requestID("unsubscribe", m.seq)); err != nil {
		m.logger.Warn("unsubscribe failed", zap.Uint64("seq", m.seq), zap.Error(err))
	}
	if err := sess.Subscribe(ctx, m.requestID("subscribe", m.seq)); err != nil {
		return fmt.Errorf("resubscribe %d: %w", m.seq, err)
	}

	m.logger.Info("subscription refreshed", zap.Uint64("seq", m.seq))
	return nil
}

func (m *Manager) requestID(op string, seq uint64) string {
	return fmt.Sprintf("%s-%d", op, seq)
}
