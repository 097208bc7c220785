package entities

import (
	"fmt"
	"strings"
)

// Speed is the relative latency class of a model.
type Speed int

const (
	SpeedFast Speed = iota
	SpeedMedium
	SpeedSlow
)

var speedNames = []string{"fast", "medium", "slow"}

func (s Speed) String() string { return enumName(speedNames, int(s), "Speed") }

// MarshalText implements encoding.TextMarshaler.
func (s Speed) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Speed) UnmarshalText(b []byte) error {
	i, err := enumParse(speedNames, string(b), "speed")
	if err != nil {
		return err
	}
	*s = Speed(i)
	return nil
}

// ReasoningTier is the reasoning strength of a model.
type ReasoningTier int

const (
	ReasoningBasic ReasoningTier = iota
	ReasoningGood
	ReasoningExcellent
)

var reasoningNames = []string{"basic", "good", "excellent"}

func (r ReasoningTier) String() string { return enumName(reasoningNames, int(r), "ReasoningTier") }

// MarshalText implements encoding.TextMarshaler.
func (r ReasoningTier) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ReasoningTier) UnmarshalText(b []byte) error {
	i, err := enumParse(reasoningNames, string(b), "reasoning tier")
	if err != nil {
		return err
	}
	*r = ReasoningTier(i)
	return nil
}

// MemoryFootprint is the memory class of a model.
type MemoryFootprint int

const (
	MemoryLow MemoryFootprint = iota
	MemoryMedium
)

var memoryNames = []string{"low", "medium"}

func (m MemoryFootprint) String() string { return enumName(memoryNames, int(m), "MemoryFootprint") }

// MarshalText implements encoding.TextMarshaler.
func (m MemoryFootprint) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MemoryFootprint) UnmarshalText(b []byte) error {
	i, err := enumParse(memoryNames, string(b), "memory footprint")
	if err != nil {
		return err
	}
	*m = MemoryFootprint(i)
	return nil
}

func enumName(names []string, i int, typ string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", typ, i)
}

func enumParse(names []string, s, typ string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", typ, s)
}

// ModelDescriptor describes an inference model's capabilities.
type ModelDescriptor struct {
	ID              string          `json:"id" yaml:"id" toml:"id"`
	Speed           Speed           `json:"speed" yaml:"speed" toml:"speed"`
	ReasoningTier   ReasoningTier   `json:"reasoningTier" yaml:"reasoning_tier" toml:"reasoning_tier"`
	MemoryFootprint MemoryFootprint `json:"memoryFootprint" yaml:"memory_footprint" toml:"memory_footprint"`
	UseCase         string          `json:"useCase" yaml:"use_case" toml:"use_case"`
}

// ModelTable maps each complexity tier to the model serving it.
// Simple holds the fastest model, Complex the highest-reasoning one.
type ModelTable struct {
	Simple  ModelDescriptor `json:"simple" yaml:"simple" toml:"simple"`
	Medium  ModelDescriptor `json:"medium" yaml:"medium" toml:"medium"`
	Complex ModelDescriptor `json:"complex" yaml:"complex" toml:"complex"`
}

// For returns the model assigned to a tier.
func (t ModelTable) For(tier Tier) ModelDescriptor {
	switch tier {
	case TierMedium:
		return t.Medium
	case TierComplex:
		return t.Complex
	default:
		return t.Simple
	}
}

// DefaultModelTable is the built-in capability table.
func DefaultModelTable() ModelTable {
	return ModelTable{
		Simple: ModelDescriptor{
			ID:              "llama3.2:1b",
			Speed:           SpeedFast,
			ReasoningTier:   ReasoningBasic,
			MemoryFootprint: MemoryLow,
			UseCase:         "Simple factual queries, inventory lookups",
		},
		Medium: ModelDescriptor{
			ID:              "llama3.2:latest",
			Speed:           SpeedMedium,
			ReasoningTier:   ReasoningGood,
			MemoryFootprint: MemoryMedium,
			UseCase:         "Complex comparisons, recommendations",
		},
		Complex: ModelDescriptor{
			ID:              "phi3:mini",
			Speed:           SpeedSlow,
			ReasoningTier:   ReasoningExcellent,
			MemoryFootprint: MemoryMedium,
			UseCase:         "Deep analysis, mathematical reasoning",
		},
	}
}
