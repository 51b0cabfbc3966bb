// Package gateway wires the SPSC ring, the order book, and the OKX session
// into the running market-data gateway: one goroutine owns the network
// session, a second drains the ring and maintains the books, and a
// registered callback fires on every applied update.
package gateway

import (
	"time"

	"okxgateway/internal/book"
)

// BookUpdate is the unit of hand-off from the session goroutine to the book
// worker through the ring. ReceiveTime is captured immediately after the
// frame read returns and carried as a time.Time rather than a raw
// nanosecond count specifically so the later latency computation goes
// through time.Since/Sub and stays on Go's monotonic clock reading; once a
// timestamp is flattened to an int64 the monotonic reading is gone and
// latency becomes vulnerable to wall-clock adjustments.
type BookUpdate struct {
	InstrumentID string
	IsSnapshot   bool
	Bids         []book.Level
	Asks         []book.Level
	ReceiveTime  time.Time
	Checksum     string
}

// BestQuote is emitted once per applied update. A missing side reports
// (0.0, 0.0).
type BestQuote struct {
	InstrumentID        string
	BestBidPrice        float64
	BestBidSize         float64
	BestAskPrice        float64
	BestAskSize         float64
	TickToBookLatencyNs int64
}

// BestQuoteCallback is invoked synchronously on the worker goroutine for
// every applied update, not only on top-of-book changes. It must not block
// and must not mutate gateway state; registration happens before Start and
// is not replaceable afterward.
type BestQuoteCallback func(BestQuote)

// MarketDataGateway is the interface the data plane exposes to the rest of
// the process: configure, register a sink, start, stop.
type MarketDataGateway interface {
	SetInstruments(instruments []string)
	SetBestQuoteCallback(cb BestQuoteCallback)
	Start() error
	Stop()
}
