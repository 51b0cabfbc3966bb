// Package book implements the per-instrument, price-aggregated limit order
// book: two sides, each a max- or min-heap over price with each level
// tracking its own heap index so a deleted level is removed from the heap
// immediately rather than left to rot.
package book

import "container/heap"

// Level is a single (price, size) pair.
type Level struct {
	Price float64
	Size  float64
}

// side is one side of the book: a priceHeap ordering levels by price, and
// a map from price to the *heapEntry backing that level, so set/remove can
// find a level's current heap slot in O(1) and remove it eagerly.
type side struct {
	heap    priceHeap
	entries map[float64]*heapEntry
	maxSid  bool // true for bids (max-heap by price), false for asks (min-heap)
}

func newSide(bids bool) *side {
	return &side{
		heap:    priceHeap{},
		entries: make(map[float64]*heapEntry),
		maxSid:  bids,
	}
}

func (s *side) clear() {
	s.heap = priceHeap{}
	s.entries = make(map[float64]*heapEntry)
}

func (s *side) set(price, size float64) {
	if e, exists := s.entries[price]; exists {
		e.size = size
		return
	}
	e := &heapEntry{price: price, size: size, bid: s.maxSid}
	s.entries[price] = e
	heap.Push(&s.heap, e)
}

// remove drops price's level from the book, removing its entry from the
// heap in place (O(log n)) rather than leaving a stale entry to skip over
// at read time — on a churning deep book that lazy approach grows the heap
// without bound.
func (s *side) remove(price float64) {
	e, exists := s.entries[price]
	if !exists {
		return
	}
	heap.Remove(&s.heap, e.index)
	delete(s.entries, price)
}

func (s *side) best() (float64, float64) {
	if s.heap.Len() == 0 {
		return 0.0, 0.0
	}
	top := s.heap[0]
	return top.price, top.size
}

func (s *side) count() int {
	return len(s.entries)
}

// heapEntry is one price level's heap slot. index is maintained by
// priceHeap.Swap so heap.Remove can be handed the entry's current position.
type heapEntry struct {
	price float64
	size  float64
	bid   bool
	index int
}

type priceHeap []*heapEntry

func (h priceHeap) Len() int { return len(h) }

func (h priceHeap) Less(i, j int) bool {
	if h[i].bid {
		return h[i].price > h[j].price
	}
	return h[i].price < h[j].price
}

func (h priceHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *priceHeap) Push(x any) {
	e := x.(*heapEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *priceHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// OrderBook holds the aggregated bid and ask sides for one instrument. It
// is mutated only by the book worker goroutine; no locking is needed.
type OrderBook struct {
	InstrumentID string
	bids         *side
	asks         *side
}

// New constructs an empty book for instrumentID.
func New(instrumentID string) *OrderBook {
	return &OrderBook{
		InstrumentID: instrumentID,
		bids:         newSide(true),
		asks:         newSide(false),
	}
}

// Clear empties both sides.
func (b *OrderBook) Clear() {
	b.bids.clear()
	b.asks.clear()
}

// ApplySnapshot replaces both sides from bids and asks. No intermediate
// state (one side assigned, the other not yet) is ever observed by a
// concurrent reader, since the worker goroutine is the sole mutator and
// caller.
func (b *OrderBook) ApplySnapshot(bids, asks []Level) {
	b.bids.clear()
	for _, lvl := range bids {
		if lvl.Size > 0 {
			b.bids.set(lvl.Price, lvl.Size)
		}
	}
	b.asks.clear()
	for _, lvl := range asks {
		if lvl.Size > 0 {
			b.asks.set(lvl.Price, lvl.Size)
		}
	}
}

// ApplyDeltaBid inserts, replaces, or (size == 0) removes a bid level.
func (b *OrderBook) ApplyDeltaBid(price, size float64) {
	applyDelta(b.bids, price, size)
}

// ApplyDeltaAsk inserts, replaces, or (size == 0) removes an ask level.
func (b *OrderBook) ApplyDeltaAsk(price, size float64) {
	applyDelta(b.asks, price, size)
}

func applyDelta(s *side, price, size float64) {
	if size == 0 {
		s.remove(price)
		return
	}
	s.set(price, size)
}

// BestBid returns the highest-priced bid level, or (0, 0) if the side is empty.
func (b *OrderBook) BestBid() (price, size float64) {
	return b.bids.best()
}

// BestAsk returns the lowest-priced ask level, or (0, 0) if the side is empty.
func (b *OrderBook) BestAsk() (price, size float64) {
	return b.asks.best()
}

// BidLevels returns the number of distinct bid price levels currently held.
func (b *OrderBook) BidLevels() int {
	return b.bids.count()
}

// AskLevels returns the number of distinct ask price levels currently held.
func (b *OrderBook) AskLevels() int {
	return b.asks.count()
}
