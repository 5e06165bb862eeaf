package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// UIDVersion tags generated calendar UIDs. Bumping it changes every UID,
// which makes downstream clients treat all entries as new.
const UIDVersion = "v1"

// OccurrenceUID computes the deterministic UID for an event occurrence.
// Identical inputs always yield the identical UID across runs so calendar
// clients update entries in place instead of duplicating them.
func OccurrenceUID(seriesID string, year int, relcalid string) string {
	return hashedUID(fmt.Sprintf("%s|events|%s|%d", UIDVersion, seriesID, year), relcalid)
}

// EarningsUID computes the deterministic UID for an earnings event.
func EarningsUID(ticker string, fiscalYear, quarter int, relcalid string) string {
	return hashedUID(
		fmt.Sprintf("%s|earnings|%s|%d|%d", UIDVersion, strings.ToLower(ticker), fiscalYear, quarter),
		relcalid,
	)
}

func hashedUID(seed, relcalid string) string {
	digest := sha256.Sum256([]byte(seed))

	return fmt.Sprintf("%s-%s@%s", UIDVersion, hex.EncodeToString(digest[:]), relcalid)
}
