// Package money provides the exact-decimal encoding used at the
// data_hash boundary, so a float64 round-trip through the Kalman filter's
// state-space math never perturbs the hash. The filter itself stays
// float64 throughout; decimal is used only here, at the serialization
// edge.
package money

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const hashPrecision = 8

// EncodePrice renders price at 8-decimal precision, truncated (not
// rounded) so the encoding is deterministic regardless of the platform's
// float64 rounding mode.
func EncodePrice(price float64) string {
	return decimal.NewFromFloat(price).Truncate(hashPrecision).String()
}

// DataHash computes the SHA-256 digest of a deterministic string encoding
// of the tick's inputs: venue prices sorted by name at 8-decimal precision,
// plus open interest, USDT mint volume, and USDC mint volume.
func DataHash(venuePrices map[string]float64, openInterest, usdtMintVolume, usdcMintVolume float64) [32]byte {
	names := make([]string, 0, len(venuePrices))
	for name := range venuePrices {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s:%s|", name, EncodePrice(venuePrices[name]))
	}
	fmt.Fprintf(&b, "oi:%s|usdt:%s|usdc:%s",
		EncodePrice(openInterest), EncodePrice(usdtMintVolume), EncodePrice(usdcMintVolume))

	return sha256.Sum256([]byte(b.String()))
}
