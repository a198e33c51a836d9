// File: internal/agent/models.go
package agent

import "github.com/jhemmrich/deskpilot/api/schemas"

// Phase is the step handler's position in the per-step lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseResolving  Phase = "RESOLVING"
	PhaseActing     Phase = "ACTING"
	PhaseJudging    Phase = "JUDGING"
	PhaseAdvancing  Phase = "ADVANCING"
	PhaseRetrying   Phase = "RETRYING"
	PhaseReplanning Phase = "REPLANNING"
)

// Event is a progress notification emitted during a task run. Events are
// informational; consumers cannot influence the run through them.
type Event struct {
	Phase        Phase
	PlanRevision int
	Step         *schemas.Step
	Attempt      int
	Detail       string
}

// Observer receives Events. Observers are invoked on their own goroutine and
// must tolerate out-of-order delivery.
type Observer func(Event)
