package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ObserveTransactions streams the owner's transaction list as seen by the UI.
//
// The observer keeps the latest value of three inputs (local rows, refresh pulses, remote
// snapshots) and emits Merge of them after every input event. Consecutive identical results
// are emitted once. A failed or closed remote subscription is retried with exponential
// backoff, and immediately on Refresh. The returned channel is closed after ctx is
// cancelled; the remote subscription is torn down with it.
func (s *Service) ObserveTransactions(ctx context.Context, ownerID string) (<-chan Resource, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithCancel(ctx)

	localCh, err := s.local.ObserveByOwner(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: observing transactions: %w", ErrLocalStore, err)
	}

	o := &observer{
		svc:     s,
		ownerID: ownerID,
		remote:  Loading(),
		out:     make(chan Resource, 1),
	}

	o.subscribe(ctx)

	refresh, unsubscribe := s.pulses.subscribe(ownerID)

	go func() {
		defer close(o.out)
		defer unsubscribe()
		defer cancel()
		defer o.stopRetry()

		o.run(ctx, localCh, refresh)
	}()

	return o.out, nil
}

// Current returns the first emission of ObserveTransactions that is not Loading. When ctx
// ends first, the last Loading value is returned instead.
func (s *Service) Current(ctx context.Context, ownerID string) (Resource, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := s.ObserveTransactions(ctx, ownerID)
	if err != nil {
		return Resource{}, err
	}

	latest := Loading()

	for r := range ch {
		latest = r
		if r.State != StateLoading {
			return r, nil
		}
	}

	return latest, nil
}

type observer struct {
	svc     *Service
	ownerID string

	local  []*Transaction
	remote Resource

	// remoteCh is nil while no subscription is live.
	remoteCh   <-chan Snapshot
	stopRemote context.CancelFunc
	retry      *time.Timer
	retryDelay time.Duration

	last    Resource
	emitted bool
	out     chan Resource
}

func (o *observer) run(ctx context.Context, localCh <-chan []*Transaction, refresh <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case rows, ok := <-localCh:
			if !ok {
				localCh = nil
				continue
			}

			o.local = rows
		case <-refresh:
			rows, err := o.svc.local.GetByOwner(ctx, o.ownerID)
			if err != nil {
				o.svc.logger.Warn("failed to refresh local transactions", "owner", o.ownerID, "error", err)
			} else {
				o.local = rows
			}

			if o.remoteCh == nil {
				o.stopRetry()
				o.subscribe(ctx)
			}
		case <-o.retryC():
			o.retry = nil
			o.subscribe(ctx)
		case snap, ok := <-o.remoteCh:
			if !ok {
				o.lost(ctx)
				break
			}

			o.remote = fromSnapshot(o.ownerID, snap)
			if o.remote.State == StateSuccess {
				o.retryDelay = 0
				o.cache(ctx, o.remote.Transactions)
			}
		}

		if !o.emit(ctx) {
			return
		}
	}
}

// subscribe opens a remote subscription. On failure the remote state becomes Error and a
// retry is scheduled.
func (o *observer) subscribe(ctx context.Context) {
	subCtx, cancel := context.WithCancel(ctx)

	ch, err := o.svc.remote.SubscribeSubtree(subCtx, o.ownerID)
	if err != nil {
		cancel()
		o.svc.logger.Warn("remote subscription failed, showing local data", "owner", o.ownerID, "error", err)
		o.remote = Failed(err.Error())
		o.scheduleRetry()

		return
	}

	o.remoteCh, o.stopRemote = ch, cancel
}

// lost handles a remote subscription that ended while the observer is still running.
func (o *observer) lost(ctx context.Context) {
	o.stopRemote()
	o.remoteCh, o.stopRemote = nil, nil

	if ctx.Err() != nil {
		return
	}

	if o.remote.State != StateError {
		o.remote = Failed("remote subscription closed")
	}

	o.svc.logger.Warn("remote subscription closed, resubscribing", "owner", o.ownerID)
	o.scheduleRetry()
}

func (o *observer) scheduleRetry() {
	o.stopRetry()

	switch {
	case o.retryDelay == 0:
		o.retryDelay = o.svc.retryMin
	case o.retryDelay < o.svc.retryMax:
		o.retryDelay = min(o.retryDelay*2, o.svc.retryMax)
	}

	o.retry = time.NewTimer(o.retryDelay)
}

func (o *observer) stopRetry() {
	if o.retry != nil {
		o.retry.Stop()
		o.retry = nil
	}
}

func (o *observer) retryC() <-chan time.Time {
	if o.retry == nil {
		return nil
	}

	return o.retry.C
}

func (o *observer) emit(ctx context.Context) bool {
	r := Merge(o.local, o.remote)
	if o.emitted && r.equal(o.last) {
		return true
	}

	select {
	case o.out <- r:
		o.last = r
		o.emitted = true

		return true
	case <-ctx.Done():
		return false
	}
}

// cache stores remote-confirmed rows locally so they stay visible offline.
func (o *observer) cache(ctx context.Context, txs []*Transaction) {
	if len(txs) == 0 {
		return
	}

	rows := make([]*Transaction, len(txs))
	for i, tx := range txs {
		row := *tx
		rows[i] = &row
	}

	if err := o.svc.local.InsertAll(ctx, rows); err != nil {
		o.svc.logger.Warn("failed to cache remote transactions", "owner", o.ownerID, "count", len(rows), "error", err)
	}
}

// pulses fans refresh signals out to the observers of each owner.
type pulses struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func newPulses() *pulses {
	return &pulses{subs: make(map[string]map[chan struct{}]struct{})}
}

func (p *pulses) subscribe(ownerID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	p.mu.Lock()
	if p.subs[ownerID] == nil {
		p.subs[ownerID] = make(map[chan struct{}]struct{})
	}
	p.subs[ownerID][ch] = struct{}{}
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		delete(p.subs[ownerID], ch)
		if len(p.subs[ownerID]) == 0 {
			delete(p.subs, ownerID)
		}
	}
}

// fire never blocks; a pulse already pending for a subscriber absorbs the new one.
func (p *pulses) fire(ownerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.subs[ownerID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
