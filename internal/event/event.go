package event

import (
	"time"

	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
)

// Event is the canonical input model for incoming triggers.
type Event struct {
	ID         string            `json:"id"`
	Trigger    string            `json:"trigger"`          // "~commit", "~pr", "~commit:master", "main", "PR-12:main"
	PRNum      string            `json:"pr_num,omitempty"` // required with "~pr"
	PRChain    bool              `json:"pr_chain,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	ReceivedAt time.Time         `json:"-"`
	Meta       map[string]string `json:"meta,omitempty"` // pipeline id, sha, etc.
}

// Descriptor returns the trigger descriptor carried by the event.
func (e *Event) Descriptor() dag.Descriptor {
	return dag.Descriptor{
		Trigger: e.Trigger,
		PRNum:   e.PRNum,
		PRChain: e.PRChain,
	}
}
