package okx

import "testing"

func TestParseNonObjectRootIgnored(t *testing.T) {
	if _, ok := Parse([]byte(`"just a string"`)); ok {
		t.Fatalf("expected non-object root to be ignored")
	}
	if _, ok := Parse([]byte(`[1,2,3]`)); ok {
		t.Fatalf("expected array root to be ignored")
	}
}

func TestParseIgnoresNonBooksChannel(t *testing.T) {
	raw := []byte(`{"arg":{"channel":"trades","instId":"BTC-USDT-SWAP"},"data":[{}]}`)
	if _, ok := Parse(raw); ok {
		t.Fatalf("expected non-books channel to be ignored")
	}
}

func TestParseIgnoresEventFrames(t *testing.T) {
	raw := []byte(`{"event":"subscribe","arg":{"channel":"books","instId":"BTC-USDT-SWAP"}}`)
	if _, ok := Parse(raw); ok {
		t.Fatalf("expected frame without data to be ignored")
	}
}

func TestParseSnapshotFrame(t *testing.T) {
	raw := []byte(`{
		"arg":{"channel":"books","instId":"BTC-USDT-SWAP"},
		"action":"snapshot",
		"data":[{
			"bids":[["30000.0","1.5"],["29999.5","2.0"]],
			"asks":[["30000.5","1.2"]],
			"cs":"12345"
		}]
	}`)
	pf, ok := Parse(raw)
	if !ok {
		t.Fatalf("expected frame to parse")
	}
	if pf.InstrumentID != "BTC-USDT-SWAP" {
		t.Fatalf("expected instId from arg, got %q", pf.InstrumentID)
	}
	if !pf.IsSnapshot {
		t.Fatalf("expected isSnapshot=true for action=snapshot")
	}
	if len(pf.Bids) != 2 || len(pf.Asks) != 1 {
		t.Fatalf("expected 2 bids and 1 ask, got %d/%d", len(pf.Bids), len(pf.Asks))
	}
	if pf.Checksum != "12345" {
		t.Fatalf("expected checksum 12345, got %q", pf.Checksum)
	}
}

func TestParseUpdateActionDefaultsToDelta(t *testing.T) {
	raw := []byte(`{
		"arg":{"channel":"books","instId":"ETH-USDT-SWAP"},
		"data":[{"bids":[["2000.0","3.0"]],"asks":[]}]
	}`)
	pf, ok := Parse(raw)
	if !ok {
		t.Fatalf("expected frame to parse")
	}
	if pf.IsSnapshot {
		t.Fatalf("expected isSnapshot=false when action is absent")
	}
}

func TestParseInstrumentIDComesFromArgNotData(t *testing.T) {
	raw := []byte(`{
		"arg":{"channel":"books","instId":"BTC-USDT-SWAP"},
		"data":[{"bids":[],"asks":[]}]
	}`)
	pf, ok := Parse(raw)
	if !ok {
		t.Fatalf("expected frame to parse")
	}
	if pf.InstrumentID != "BTC-USDT-SWAP" {
		t.Fatalf("expected instId %q, got %q", "BTC-USDT-SWAP", pf.InstrumentID)
	}
}

func TestParseSkipsMalformedLevels(t *testing.T) {
	raw := []byte(`{
		"arg":{"channel":"books","instId":"BTC-USDT-SWAP"},
		"data":[{"bids":[["not-a-number","1.0"],["100.0","2.0"]],"asks":[]}]
	}`)
	pf, ok := Parse(raw)
	if !ok {
		t.Fatalf("expected frame to parse")
	}
	if len(pf.Bids) != 1 {
		t.Fatalf("expected malformed level to be skipped, got %d bids", len(pf.Bids))
	}
}
