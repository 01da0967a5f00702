package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ChainHash computes the tamper-evidence hash for an event given the previous
// event's hash. The encoding is deliberately flat and deterministic (sorted
// detail keys, RFC 3339 nano timestamps) so independent implementations can
// re-verify the chain.
func ChainHash(prevHash string, e Event) string {
	var b strings.Builder
	b.WriteString(prevHash)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%d\n%s\n%s\n%s\n%s\n%s\n",
		e.SequenceNumber,
		e.ID,
		e.CertificateID,
		e.Kind,
		e.Actor,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	)

	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, e.Details[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifyChain walks events in order and reports the first sequence number
// whose hash linkage is broken, or 0 if the chain is intact. Events must be
// supplied in ascending sequence order starting from the first entry.
func VerifyChain(events []Event) uint64 {
	prev := ""
	for _, e := range events {
		if e.PrevHash != prev || e.Hash != ChainHash(prev, e) {
			return e.SequenceNumber
		}
		prev = e.Hash
	}
	return 0
}
