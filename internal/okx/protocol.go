package okx

import (
	"encoding/json"
	"strconv"

	"okxgateway/internal/book"
)

// frame mirrors the inbound shape of OKX's public books channel:
//
//	{"arg":{"channel":"books","instId":"<ID>"},
//	 "action":"snapshot"|"update",
//	 "data":[{"bids":[[px,sz,...],...],"asks":[[px,sz,...],...],"cs":"<int>"}]}
type frame struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Action string `json:"action"`
	Data   []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
		Cs   string     `json:"cs"`
	} `json:"data"`
}

// ParsedFrame is the outcome of successfully decoding one books-channel
// frame, ready to become a gateway.BookUpdate.
type ParsedFrame struct {
	InstrumentID string
	IsSnapshot   bool
	Bids         []book.Level
	Asks         []book.Level
	Checksum     string
}

// Parse decodes raw JSON bytes. It returns ok == false for anything this
// core does not process: a non-object root (heartbeats, acks, errors),
// any channel other than "books", or a books frame with no data payload.
// These are not errors — the exchange routinely interleaves control frames
// with book frames, and silently ignoring them is correct per the session's
// frame-processing contract.
func Parse(raw []byte) (ParsedFrame, bool) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return ParsedFrame{}, false
	}
	if f.Arg.Channel != "books" {
		return ParsedFrame{}, false
	}
	if len(f.Data) == 0 {
		return ParsedFrame{}, false
	}

	d := f.Data[0]
	pf := ParsedFrame{
		// instId is authoritative from arg, never from the data payload.
		InstrumentID: f.Arg.InstID,
		IsSnapshot:   f.Action == "snapshot",
		Bids:         toLevels(d.Bids),
		Asks:         toLevels(d.Asks),
		Checksum:     d.Cs,
	}
	return pf, true
}

func toLevels(raw [][]string) []book.Level {
	if len(raw) == 0 {
		return nil
	}
	levels := make([]book.Level, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		px, errPx := strconv.ParseFloat(entry[0], 64)
		sz, errSz := strconv.ParseFloat(entry[1], 64)
		if errPx != nil || errSz != nil {
			continue
		}
		levels = append(levels, book.Level{Price: px, Size: sz})
	}
	return levels
}
