package okx

import (
	"hash/crc32"
	"strconv"
	"strings"

	"okxgateway/internal/book"
)

// Checksum computes OKX's order-book integrity token for the given bids and
// asks. The canonical string concatenates bids then asks, in the order
// received — no interleaving, no truncation to a fixed depth, matching the
// reference gateway's computeOkxChecksum (bids, then asks, fixed-point with
// 8 fractional digits, trailing colon stripped). CRC-32 uses the IEEE
// polynomial, zlib-compatible, the same table hash/crc32.ChecksumIEEE
// computes; no third-party CRC library in the example pack offers anything
// this stdlib function doesn't already provide exactly.
func Checksum(bids, asks []book.Level) string {
	var b strings.Builder
	for _, lvl := range bids {
		writeLevel(&b, lvl)
	}
	for _, lvl := range asks {
		writeLevel(&b, lvl)
	}
	s := strings.TrimSuffix(b.String(), ":")
	sum := crc32.ChecksumIEEE([]byte(s))
	return strconv.FormatUint(uint64(sum), 10)
}

func writeLevel(b *strings.Builder, lvl book.Level) {
	b.WriteString(strconv.FormatFloat(lvl.Price, 'f', 8, 64))
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(lvl.Size, 'f', 8, 64))
	b.WriteByte(':')
}
