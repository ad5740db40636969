package orchestrator

import (
	"fmt"

	"formchat-be/pkg/agent/predictor"
	"formchat-be/pkg/agent/router"
)

// Settings are the tuning values of the conversation flow. They are product
// defaults, not invariants, and are injected at construction.
type Settings struct {
	Thresholds          predictor.Thresholds
	TopN                int
	MaxReprompts        int
	RouterMinConfidence float64
	HistoryLimit        int
}

func DefaultSettings() Settings {
	return Settings{
		Thresholds:          predictor.DefaultThresholds(),
		TopN:                predictor.DefaultTopN,
		MaxReprompts:        3,
		RouterMinConfidence: router.DefaultMinConfidence,
		HistoryLimit:        20,
	}
}

func (s Settings) Validate() error {
	if s.Thresholds.Low < 0 || s.Thresholds.High > 1 || s.Thresholds.Low > s.Thresholds.High {
		return fmt.Errorf("invalid thresholds: low=%.2f high=%.2f", s.Thresholds.Low, s.Thresholds.High)
	}
	if s.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", s.TopN)
	}
	if s.MaxReprompts < 0 {
		return fmt.Errorf("max_reprompts must not be negative, got %d", s.MaxReprompts)
	}
	if s.RouterMinConfidence < 0 || s.RouterMinConfidence > 1 {
		return fmt.Errorf("router_min_confidence must be within [0,1], got %.2f", s.RouterMinConfidence)
	}
	return nil
}
