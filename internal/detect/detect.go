package detect

import (
	"github.com/ivstanko/cryptoscan/internal/models"
)

// Detection is a breakout detector's verdict for one symbol on the
// current candles. Rating is only meaningful when Detected is true.
type Detection struct {
	Detected bool
	Rating   int
}

// ReversalDetection carries a direction instead of a plain flag:
// "bullish" for a dump reversing up, "bearish" for a pump rolling over,
// empty when nothing was found.
type ReversalDetection struct {
	Direction string
	Rating    int
}

// ReversalState is per-symbol scratch state owned by the reversal
// detector. Callers persist it between cycles without inspecting it.
type ReversalState struct {
	LastImpulseDirection string
	LastImpulseBar       int64
	BarsSinceImpulse     int
}

// PumpDetector flags an explosive upside breakout on 1-minute candles.
type PumpDetector interface {
	Detect(candles models.Candles) Detection
}

// DumpDetector flags a violent downside break on 1-minute candles.
type DumpDetector interface {
	Detect(candles models.Candles) Detection
}

// ReversalDetector flags an exhausted move turning around. The state
// blob is read and updated in place.
type ReversalDetector interface {
	Detect(candles models.Candles, state *ReversalState) ReversalDetection
}
