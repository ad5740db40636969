// Package reasoning records how a single decision was reached.
//
// A Chain is created at the start of one decision, steps are appended while
// the decision is being made, and Seal freezes it with a final result. The
// final confidence is the arithmetic mean of the step confidences (0 for an
// empty chain), clamped to [0,1].
package reasoning

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrChainSealed       = errors.New("reasoning chain is sealed")
	ErrConfidenceInvalid = errors.New("confidence must be within [0,1]")
)

// Step is one recorded unit of analysis
type Step struct {
	Type       string    `json:"step_type"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
	Evidence   []string  `json:"evidence,omitempty"`
	At         time.Time `json:"at"`
}

// Chain is the mutable, append-only record of one decision in progress
type Chain struct {
	DecisionID   string
	DecisionType string
	Input        string
	CreatedAt    time.Time

	steps  []Step
	sealed bool
}

// Sealed is an immutable snapshot of a finished chain
type Sealed struct {
	DecisionID      string    `json:"decision_id"`
	DecisionType    string    `json:"decision_type"`
	Input           string    `json:"input"`
	Steps           []Step    `json:"steps"`
	FinalResult     string    `json:"final_result"`
	FinalConfidence float64   `json:"final_confidence"`
	Level           Level     `json:"confidence_level"`
	CreatedAt       time.Time `json:"created_at"`
	SealedAt        time.Time `json:"sealed_at"`
}

func Start(decisionID, decisionType, input string) *Chain {
	return &Chain{
		DecisionID:   decisionID,
		DecisionType: decisionType,
		Input:        input,
		CreatedAt:    time.Now(),
	}
}

// AddStep appends a step. Evidence is copied.
func (c *Chain) AddStep(stepType, input, output string, confidence float64, rationale string, evidence ...string) error {
	if c.sealed {
		return fmt.Errorf("%w: %s", ErrChainSealed, c.DecisionID)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: got %v", ErrConfidenceInvalid, confidence)
	}

	c.append(stepType, input, output, confidence, rationale, evidence)
	return nil
}

// Record appends a step without failing. A confidence outside [0,1] is
// clamped and the original value kept as evidence. Recording on a sealed
// chain is a programming error and panics.
func (c *Chain) Record(stepType, input, output string, confidence float64, rationale string, evidence ...string) {
	if c.sealed {
		panic(fmt.Sprintf("reasoning: Record on sealed chain %s", c.DecisionID))
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		evidence = append(append([]string(nil), evidence...), fmt.Sprintf("confidence %v clamped", confidence))
		confidence = Clamp(confidence)
	}
	c.append(stepType, input, output, confidence, rationale, evidence)
}

func (c *Chain) append(stepType, input, output string, confidence float64, rationale string, evidence []string) {
	c.steps = append(c.steps, Step{
		Type:       stepType,
		Input:      input,
		Output:     output,
		Confidence: confidence,
		Rationale:  rationale,
		Evidence:   append([]string(nil), evidence...),
		At:         time.Now(),
	})
}

// Steps returns a copy of the recorded steps
func (c *Chain) Steps() []Step {
	return copySteps(c.steps)
}

// Confidence is the current combined confidence
func (c *Chain) Confidence() float64 {
	return Combine(c.steps)
}

func (c *Chain) IsSealed() bool {
	return c.sealed
}

// Seal freezes the chain. Later AddStep calls fail with ErrChainSealed.
func (c *Chain) Seal(finalResult string) Sealed {
	c.sealed = true
	final := Combine(c.steps)
	return Sealed{
		DecisionID:      c.DecisionID,
		DecisionType:    c.DecisionType,
		Input:           c.Input,
		Steps:           copySteps(c.steps),
		FinalResult:     finalResult,
		FinalConfidence: final,
		Level:           LevelOf(final),
		CreatedAt:       c.CreatedAt,
		SealedAt:        time.Now(),
	}
}

// Combine is the arithmetic mean of step confidences
func Combine(steps []Step) float64 {
	if len(steps) == 0 {
		return 0
	}
	var sum float64
	for _, s := range steps {
		sum += s.Confidence
	}
	return Clamp(sum / float64(len(steps)))
}

// Clamp bounds v to [0,1]; NaN becomes 0
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func copySteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		s.Evidence = append([]string(nil), s.Evidence...)
		out[i] = s
	}
	return out
}
