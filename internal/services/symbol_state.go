package services

import (
	"sync"
	"time"

	"github.com/ivstanko/cryptoscan/internal/detect"
)

// MemorySnapshot is what the analyzer records about a symbol after
// emitting a signal.
type MemorySnapshot struct {
	ATR        float64
	TrendScore int
	IsPump     bool
	IsDump     bool
	IsReversal bool
	RefFactor  float64
}

// SymbolMemory is the symbol's learned behavioural profile, rebuilt
// incrementally from signal snapshots.
type SymbolMemory struct {
	Regime          string  `json:"regime"`
	SampleCount     int     `json:"sample_count"`
	PumpCount       int     `json:"pump_count"`
	DumpCount       int     `json:"dump_count"`
	ReversalCount   int     `json:"reversal_count"`
	PumpProbability float64 `json:"pump_probability"`
	DumpProbability float64 `json:"dump_probability"`
	LastATR         float64 `json:"last_atr"`
	LastTrendScore  int     `json:"last_trend_score"`
}

// SymbolStateService owns all per-symbol mutable state: the cooldown
// map, the reversal detector's scratch state and the behavioural
// memory. Safe for concurrent use from the analysis fan-out.
type SymbolStateService struct {
	cooldown time.Duration

	mu             sync.Mutex
	lastSignalAt   map[string]time.Time
	reversalStates map[string]*detect.ReversalState
	memory         map[string]*SymbolMemory

	now func() time.Time
}

func NewSymbolStateService(cooldown time.Duration) *SymbolStateService {
	return &SymbolStateService{
		cooldown:       cooldown,
		lastSignalAt:   make(map[string]time.Time),
		reversalStates: make(map[string]*detect.ReversalState),
		memory:         make(map[string]*SymbolMemory),
		now:            time.Now,
	}
}

// OnCooldown reports whether the symbol signalled too recently.
func (s *SymbolStateService) OnCooldown(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastSignalAt[symbol]
	if !ok {
		return false
	}
	return s.now().Sub(last) < s.cooldown
}

// MarkSignal stamps the symbol's cooldown clock.
func (s *SymbolStateService) MarkSignal(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSignalAt[symbol] = s.now()
}

// ReversalState hands out the symbol's reversal scratch state,
// creating it on first use. The caller mutates it in place.
func (s *SymbolStateService) ReversalState(symbol string) *detect.ReversalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.reversalStates[symbol]
	if !ok {
		state = &detect.ReversalState{}
		s.reversalStates[symbol] = state
	}
	return state
}

// MemoryRegime returns the symbol's learned regime, neutral when the
// symbol has no history yet.
func (s *SymbolStateService) MemoryRegime(symbol string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memory[symbol]
	if !ok {
		return "neutral"
	}
	return mem.Regime
}

// Memory returns a copy of the symbol's profile, or nil.
func (s *SymbolStateService) Memory(symbol string) *SymbolMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memory[symbol]
	if !ok {
		return nil
	}
	copied := *mem
	return &copied
}

// UpdateMemory folds a new snapshot into the symbol's profile and
// reclassifies its regime.
func (s *SymbolStateService) UpdateMemory(symbol string, snap MemorySnapshot) *SymbolMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem, ok := s.memory[symbol]
	if !ok {
		mem = &SymbolMemory{Regime: "neutral"}
		s.memory[symbol] = mem
	}

	mem.SampleCount++
	if snap.IsPump {
		mem.PumpCount++
	}
	if snap.IsDump {
		mem.DumpCount++
	}
	if snap.IsReversal {
		mem.ReversalCount++
	}
	mem.LastATR = snap.ATR
	mem.LastTrendScore = snap.TrendScore

	total := float64(mem.SampleCount)
	mem.PumpProbability = float64(mem.PumpCount) / total
	mem.DumpProbability = float64(mem.DumpCount) / total

	mem.Regime = classifyMemoryRegime(mem)

	copied := *mem
	return &copied
}

// classifyMemoryRegime needs a few samples before leaving neutral.
// A symbol that swings both ways is chaotic; one that keeps reversing
// is mean-reverting.
func classifyMemoryRegime(mem *SymbolMemory) string {
	if mem.SampleCount < 3 {
		return "neutral"
	}
	total := float64(mem.SampleCount)
	revProb := float64(mem.ReversalCount) / total

	switch {
	case mem.PumpProbability >= 0.35 && mem.DumpProbability >= 0.35:
		return "chaotic"
	case revProb > 0.5:
		return "mean_reverting"
	case mem.PumpProbability > 0.6:
		return "pumpy"
	case mem.DumpProbability > 0.6:
		return "dumpy"
	}
	return "neutral"
}
