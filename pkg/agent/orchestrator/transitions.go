package orchestrator

import (
	"fmt"

	"formchat-be/pkg/store"
)

// decisionEdges lists the stage changes a turn may make after routing.
// Staying in the same stage is always allowed; idle and submitted are left
// through the entry edge into searching, which happens before routing.
var decisionEdges = map[store.Stage][]store.Stage{
	store.StageSearching:  {store.StageFilling, store.StagePredicted},
	store.StagePredicted:  {store.StageFilling, store.StageSearching},
	store.StageFilling:    {store.StageConfirming},
	store.StageConfirming: {store.StageSubmitted, store.StageFilling},
}

func checkTransition(from, to store.Stage, reset bool) error {
	if !to.Valid() {
		return fmt.Errorf("unknown stage %q", to)
	}
	if from == to {
		return nil
	}
	if reset && to == store.StageIdle {
		return nil
	}
	for _, allowed := range decisionEdges[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", from, to)
}
