package metrics

import "testing"

func TestRegistryTracksUpdatesAndResets(t *testing.T) {
	r := NewRegistry()
	r.RegisterInstrument("BTC-USDT-SWAP")

	r.IncUpdates("BTC-USDT-SWAP")
	r.IncUpdates("BTC-USDT-SWAP")
	r.IncUpdates("BTC-USDT-SWAP")

	if got := r.resetUpdates("BTC-USDT-SWAP"); got != 3 {
		t.Fatalf("expected 3 updates, got %d", got)
	}
	if got := r.resetUpdates("BTC-USDT-SWAP"); got != 0 {
		t.Fatalf("expected reset to zero the counter, got %d", got)
	}
}

func TestRegistryLatencyAverages(t *testing.T) {
	r := NewRegistry()
	r.RegisterInstrument("BTC-USDT-SWAP")

	r.AddLatencyNs("BTC-USDT-SWAP", 1000)
	r.AddLatencyNs("BTC-USDT-SWAP", 3000)

	totalNs, count := r.resetLatency("BTC-USDT-SWAP")
	if totalNs != 4000 || count != 2 {
		t.Fatalf("expected totalNs=4000 count=2, got totalNs=%d count=%d", totalNs, count)
	}

	totalNs, count = r.resetLatency("BTC-USDT-SWAP")
	if totalNs != 0 || count != 0 {
		t.Fatalf("expected reset latency accumulator, got totalNs=%d count=%d", totalNs, count)
	}
}

func TestRegistryIgnoresUnknownInstrument(t *testing.T) {
	r := NewRegistry()
	// Should not panic even though "XYZ" was never registered.
	r.IncUpdates("XYZ")
	r.AddLatencyNs("XYZ", 500)
	if got := r.resetUpdates("XYZ"); got != 0 {
		t.Fatalf("expected 0 for unregistered instrument, got %d", got)
	}
}

func TestInstrumentsPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.RegisterInstrument("BTC-USDT-SWAP")
	r.RegisterInstrument("ETH-USDT-SWAP")
	r.RegisterInstrument("BTC-USDT-SWAP") // duplicate, should not append again

	got := r.Instruments()
	want := []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP"}
	if len(got) != len(want) {
		t.Fatalf("expected %d instruments, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected instruments %v, got %v", want, got)
		}
	}
}

func TestStartStopReporterDoesNotBlock(t *testing.T) {
	r := NewRegistry()
	r.RegisterInstrument("BTC-USDT-SWAP")
	rep := NewReporter(r, 10e9, 60e9)
	rep.Start()
	rep.Stop()
}
