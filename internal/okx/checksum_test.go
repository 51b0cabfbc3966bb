package okx

import (
	"testing"

	"okxgateway/internal/book"
)

func TestChecksumKnownValue(t *testing.T) {
	bids := []book.Level{{Price: 30000.0, Size: 1.5}}
	asks := []book.Level{{Price: 30000.5, Size: 1.2}}

	got := Checksum(bids, asks)
	want := "2570240184"
	if got != want {
		t.Fatalf("Checksum() = %q, want %q", got, want)
	}
}

func TestChecksumEmptyIsZero(t *testing.T) {
	got := Checksum(nil, nil)
	if got != "0" {
		t.Fatalf("Checksum(nil, nil) = %q, want \"0\"", got)
	}
}

func TestChecksumOrderMatters(t *testing.T) {
	a := Checksum([]book.Level{{Price: 1, Size: 1}}, []book.Level{{Price: 2, Size: 2}})
	b := Checksum([]book.Level{{Price: 2, Size: 2}}, []book.Level{{Price: 1, Size: 1}})
	if a == b {
		t.Fatalf("expected bids-then-asks concatenation to be order sensitive")
	}
}

func TestChecksumDeterministic(t *testing.T) {
	bids := []book.Level{{Price: 100.12345678, Size: 0.00000001}}
	a := Checksum(bids, nil)
	b := Checksum(bids, nil)
	if a != b {
		t.Fatalf("expected identical input to produce identical checksum, got %q and %q", a, b)
	}
}
