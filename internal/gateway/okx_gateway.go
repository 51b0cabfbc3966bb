package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"okxgateway/internal/book"
	"okxgateway/internal/gwlog"
	"okxgateway/internal/metrics"
	"okxgateway/internal/okx"
	"okxgateway/internal/ring"
)

var _ MarketDataGateway = (*OkxGateway)(nil)

// OkxGateway is the concrete MarketDataGateway backed by OKX's public books
// channel. One goroutine (okx.Session) owns the WebSocket connection and
// pushes parsed updates into a ring; a second goroutine drains the ring,
// maintains one book per instrument, and invokes the callback. Grounded on
// the reference gateway's ioThread/bookThread split.
type OkxGateway struct {
	host, port, path string
	ringCapacity     uint64
	reconnectBackoff time.Duration
	workerIdleSleep  time.Duration

	log *gwlog.Entry

	mu          sync.Mutex
	instruments []string
	books       map[string]*book.OrderBook
	callback    BestQuoteCallback

	ringBuf  *ring.Ring[BookUpdate]
	session  *okx.Session
	registry *metrics.Registry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	state  State
}

// Option configures an OkxGateway at construction time.
type Option func(*OkxGateway)

// WithEndpoint overrides the default public OKX host/port/path.
func WithEndpoint(host, port, path string) Option {
	return func(g *OkxGateway) {
		g.host, g.port, g.path = host, port, path
	}
}

// WithRingCapacity overrides the default ring size. Must be a power of two.
func WithRingCapacity(capacity uint64) Option {
	return func(g *OkxGateway) { g.ringCapacity = capacity }
}

// WithReconnectBackoff overrides the delay between failed connect attempts.
func WithReconnectBackoff(d time.Duration) Option {
	return func(g *OkxGateway) { g.reconnectBackoff = d }
}

// WithWorkerIdleSleep overrides the book worker's idle-poll sleep.
func WithWorkerIdleSleep(d time.Duration) Option {
	return func(g *OkxGateway) { g.workerIdleSleep = d }
}

// WithRegistry points the gateway at a metrics.Registry it should report
// update rates and tick-to-book latency into. Without this option the
// gateway still runs, it just doesn't feed a registry.
func WithRegistry(registry *metrics.Registry) Option {
	return func(g *OkxGateway) { g.registry = registry }
}

// NewOkxGateway constructs a gateway with sane defaults, overridable via opts.
func NewOkxGateway(opts ...Option) *OkxGateway {
	g := &OkxGateway{
		host:             okx.DefaultHost,
		port:             okx.DefaultPort,
		path:             okx.DefaultPath,
		ringCapacity:     4096,
		reconnectBackoff: 2 * time.Second,
		workerIdleSleep:  100 * time.Nanosecond,
		log:              gwlog.Get().WithComponent("okx_gateway"),
		books:            make(map[string]*book.OrderBook),
		state:            Disconnected,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetInstruments replaces the tracked instrument set and resets every book.
// Must be called before Start.
func (g *OkxGateway) SetInstruments(instruments []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instruments = append([]string(nil), instruments...)
	g.books = make(map[string]*book.OrderBook, len(instruments))
	for _, inst := range g.instruments {
		g.books[inst] = book.New(inst)
		if g.registry != nil {
			g.registry.RegisterInstrument(inst)
		}
	}
}

// SetBestQuoteCallback registers the sink invoked on every applied update.
// Must be called before Start.
func (g *OkxGateway) SetBestQuoteCallback(cb BestQuoteCallback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callback = cb
}

// Start launches the session and book-worker goroutines. Safe to call once;
// a second call returns an error instead of starting a duplicate session.
func (g *OkxGateway) Start() error {
	g.mu.Lock()
	if g.cancel != nil {
		g.mu.Unlock()
		return fmt.Errorf("okx gateway already started")
	}
	instruments := append([]string(nil), g.instruments...)
	g.mu.Unlock()

	if len(instruments) == 0 {
		return fmt.Errorf("okx gateway: no instruments configured")
	}

	g.ringBuf = ring.NewRing[BookUpdate](g.ringCapacity)
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.session = okx.NewSession(g.host, g.port, g.path, instruments, g.reconnectBackoff, g.onMessage)

	g.setState(Connecting)
	g.wg.Add(2)
	go func() {
		defer g.wg.Done()
		g.session.Run(g.ctx)
	}()
	go func() {
		defer g.wg.Done()
		g.bookWorkerRun()
	}()

	g.log.WithFields(gwlog.Fields{"instruments": instruments}).Info("okx gateway started")
	return nil
}

// State reports the gateway's coarse connection state.
func (g *OkxGateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *OkxGateway) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Stop signals both goroutines to shut down, draining any updates already
// queued in the ring before returning.
func (g *OkxGateway) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	session := g.session
	g.mu.Unlock()
	if cancel == nil {
		return
	}
	g.setState(Draining)
	session.Stop()
	cancel()
	g.wg.Wait()
	g.setState(Disconnected)
	g.log.Info("okx gateway stopped")
}

// onMessage parses one raw frame and enqueues it for the book worker. Called
// on the session goroutine; never blocks.
func (g *OkxGateway) onMessage(raw []byte, receiveTime time.Time) {
	pf, ok := okx.Parse(raw)
	if !ok {
		return
	}
	g.setState(Subscribed)

	if pf.Checksum != "" {
		computed := okx.Checksum(pf.Bids, pf.Asks)
		if computed != pf.Checksum {
			g.log.WithFields(gwlog.Fields{
				"instrument": pf.InstrumentID,
				"received":   pf.Checksum,
				"computed":   computed,
			}).Warn("checksum mismatch, dropping frame")
			return
		}
	}

	update := BookUpdate{
		InstrumentID: pf.InstrumentID,
		IsSnapshot:   pf.IsSnapshot,
		Bids:         pf.Bids,
		Asks:         pf.Asks,
		ReceiveTime:  receiveTime,
		Checksum:     pf.Checksum,
	}
	if !g.ringBuf.TryEmplace(update) {
		g.log.WithFields(gwlog.Fields{"instrument": pf.InstrumentID}).Warn("ring buffer full, dropping update")
	}
}

// bookWorkerRun drains the ring until ctx is cancelled, then drains
// whatever remains queued before returning — mirroring the reference
// gateway's bookThreadRun shutdown drain.
func (g *OkxGateway) bookWorkerRun() {
	var update BookUpdate
	for g.ctx.Err() == nil {
		if g.ringBuf.TryPop(&update) {
			g.processBookUpdate(update)
		} else {
			time.Sleep(g.workerIdleSleep)
		}
	}
	for g.ringBuf.TryPop(&update) {
		g.processBookUpdate(update)
	}
}

func (g *OkxGateway) processBookUpdate(update BookUpdate) {
	g.mu.Lock()
	ob, ok := g.books[update.InstrumentID]
	cb := g.callback
	g.mu.Unlock()

	if !ok {
		g.log.WithFields(gwlog.Fields{"instrument": update.InstrumentID}).Warn("no order book for instrument")
		return
	}

	if update.IsSnapshot {
		ob.ApplySnapshot(update.Bids, update.Asks)
	} else {
		for _, lvl := range update.Bids {
			ob.ApplyDeltaBid(lvl.Price, lvl.Size)
		}
		for _, lvl := range update.Asks {
			ob.ApplyDeltaAsk(lvl.Price, lvl.Size)
		}
	}

	bbp, bbs := ob.BestBid()
	bap, bas := ob.BestAsk()
	latencyNs := time.Since(update.ReceiveTime).Nanoseconds()

	if g.registry != nil {
		g.registry.IncUpdates(update.InstrumentID)
		g.registry.AddLatencyNs(update.InstrumentID, latencyNs)
	}

	if cb == nil {
		g.log.Warn("no best-quote callback set")
		return
	}
	cb(BestQuote{
		InstrumentID:        update.InstrumentID,
		BestBidPrice:        bbp,
		BestBidSize:         bbs,
		BestAskPrice:        bap,
		BestAskSize:         bas,
		TickToBookLatencyNs: latencyNs,
	})
}
