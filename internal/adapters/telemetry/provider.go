package telemetry

import (
	"os"

	"go.trai.ch/forge/internal/adapters/telemetry/progrock"
	"go.trai.ch/forge/internal/core/ports"
)

// ProgressVar disables progress recording when set to "off".
const ProgressVar = "FORGE_PROGRESS"

// NewFromEnv selects the telemetry implementation: progrock unless
// FORGE_PROGRESS=off.
func NewFromEnv() ports.Telemetry {
	if os.Getenv(ProgressVar) == "off" {
		return NewNoOp()
	}
	return progrock.New()
}
