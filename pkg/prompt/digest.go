package prompt

import (
	"crypto/sha256"
	"encoding/hex"
)

// computeDigest fingerprints template bytes so a reply can be traced to the
// exact prompt revision that produced it.
func computeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
