package reasoning

import (
	"fmt"
	"strings"
)

type Level string

const (
	LevelVeryHigh Level = "very_high"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelVeryLow  Level = "very_low"
)

func LevelOf(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelVeryHigh
	case score >= 0.75:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	case score >= 0.25:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

type Audience string

const (
	AudienceUser      Audience = "user"
	AudienceDeveloper Audience = "developer"
)

// ParseAudience maps a query value to an Audience, defaulting to user
func ParseAudience(s string) Audience {
	if strings.EqualFold(strings.TrimSpace(s), string(AudienceDeveloper)) {
		return AudienceDeveloper
	}
	return AudienceUser
}

// Explain renders a sealed chain for the given audience
func Explain(s Sealed, audience Audience) string {
	if audience == AudienceDeveloper {
		return explainDeveloper(s)
	}
	return explainUser(s)
}

func explainUser(s Sealed) string {
	if len(s.Steps) == 0 {
		return "No reasoning was recorded for this decision."
	}
	rationale := strings.Join(strings.Fields(s.Steps[len(s.Steps)-1].Rationale), " ")
	rationale = strings.TrimRight(rationale, ".!? ")
	if rationale == "" {
		return fmt.Sprintf("Decided %s with %s confidence.", s.FinalResult, humanLevel(s.Level))
	}
	return fmt.Sprintf("%s (%s confidence).", rationale, humanLevel(s.Level))
}

func explainDeveloper(s Sealed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "decision %s [%s] result=%s confidence=%.2f level=%s\n",
		s.DecisionID, s.DecisionType, s.FinalResult, s.FinalConfidence, s.Level)
	for i, step := range s.Steps {
		fmt.Fprintf(&b, "%d. %s conf=%.2f in=%q out=%q rationale=%q",
			i+1, step.Type, step.Confidence, step.Input, step.Output, step.Rationale)
		if len(step.Evidence) > 0 {
			fmt.Fprintf(&b, " evidence=[%s]", strings.Join(step.Evidence, "; "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func humanLevel(l Level) string {
	return strings.ReplaceAll(string(l), "_", " ")
}
