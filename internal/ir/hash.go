package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainPlan is the domain prefix for plan manifest hashes.
// The version suffix allows a future algorithm change.
const DomainPlan = "idmgr/plan/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanHash computes the content hash of a manifest. The Hash field itself
// is excluded, so the result is stable for a given plan.
func PlanHash(m *PlanManifest) (string, error) {
	canonical, err := MarshalCanonical(m.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("PlanHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}
