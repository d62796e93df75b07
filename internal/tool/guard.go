package tool

import "fmt"

// Safety modes. confirm_writes gates destructive writes but lets annotations
// (notes, reminders) through; confirm_all gates every write; open trusts the
// operator entirely. Hired protection applies in every mode.
const (
	ModeOpen          = "open"
	ModeConfirmWrites = "confirm_writes"
	ModeConfirmAll    = "confirm_all"
)

type Decision int

const (
	DecisionAllow Decision = iota
	DecisionConfirm
	DecisionDeny
)

// annotation kinds are additive and reversible; they skip the gate in
// confirm_writes mode.
var annotationKinds = map[string]bool{
	KindAddNote:     true,
	KindAddTag:      true,
	KindSetReminder: true,
}

// Guard decides what happens to a write: execute, park for confirmation, or
// deny. It sees the operation kind and whether the target is a hired
// candidate; it never sees conversation state.
type Guard struct {
	mode       string
	batchLimit int
}

func NewGuard(mode string, batchLimit int) *Guard {
	return &Guard{mode: mode, batchLimit: batchLimit}
}

// Check gates one write against one target.
func (g *Guard) Check(kind string, targetHired bool) (Decision, string) {
	if targetHired {
		return DecisionDeny, "hired candidates are protected; this record cannot be modified"
	}
	switch g.mode {
	case ModeOpen:
		return DecisionAllow, ""
	case ModeConfirmWrites:
		if annotationKinds[kind] {
			return DecisionAllow, ""
		}
		return DecisionConfirm, ""
	default: // confirm_all and anything unrecognized gets the strictest gate
		return DecisionConfirm, ""
	}
}

// CheckBatch bounds how many targets a single batch operation may touch.
func (g *Guard) CheckBatch(n int) error {
	if n > g.batchLimit {
		return fmt.Errorf("batch of %d exceeds the limit of %d; split it up or narrow the selection", n, g.batchLimit)
	}
	return nil
}

func (g *Guard) BatchLimit() int { return g.batchLimit }
