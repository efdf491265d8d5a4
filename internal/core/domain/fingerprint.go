package domain

import "time"

// Fingerprint records the hash of the rules file as of the last completed
// run. A changed fingerprint forces a full rebuild, since edited rules can
// invalidate targets without touching any prerequisite timestamp.
type Fingerprint struct {
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// RegistryFingerprintName is the store key for the rules-file fingerprint.
const RegistryFingerprintName = "registry"
