// File: internal/memory/memory.go
// Execution Memory: the append-only audit trail of every attempted step. No
// mutation or deletion API exists on purpose; corrections are new records.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
)

// Memory accumulates ExecutionRecords for the lifetime of one task.
type Memory struct {
	logger *zap.Logger

	mu      sync.RWMutex
	records []schemas.ExecutionRecord
	// compacted holds one-line summaries of records from plan revisions that
	// have been folded away to keep reasoning context within size limits.
	compacted []string
	// lastPoint is the coordinate of the most recent successful interaction,
	// used by the locator to break confidence ties by locality.
	lastPoint *schemas.Point

	maxRecords int
}

// New creates an empty Memory. maxRecords bounds the retained full records;
// beyond it, records from older plan revisions are compacted into text.
func New(maxRecords int, logger *zap.Logger) *Memory {
	return &Memory{
		logger:     logger.Named("memory"),
		maxRecords: maxRecords,
	}
}

// Append adds a record at the end of the trail and triggers compaction when
// the cap is exceeded. Records are never reordered or rewritten.
func (m *Memory) Append(record schemas.ExecutionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)

	if record.Judgment.Verdict == schemas.JudgmentSuccess && record.Resolved != nil {
		p := *record.Resolved
		m.lastPoint = &p
	}

	if m.maxRecords > 0 && len(m.records) > m.maxRecords {
		m.compactLocked(record.PlanRevision)
	}

	m.logger.Debug("Record appended",
		zap.Int("ordinal", record.Step.Ordinal),
		zap.Int("attempt", record.Attempt),
		zap.String("verdict", string(record.Judgment.Verdict)),
		zap.Int("total_records", len(m.records)))
}

// Snapshot returns a copy of the full records in append order.
func (m *Memory) Snapshot() []schemas.ExecutionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schemas.ExecutionRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Len reports the number of retained full records plus compacted summaries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records) + len(m.compacted)
}

// LastInteractionPoint returns the coordinate of the most recent successful
// interaction, or false if none happened yet.
func (m *Memory) LastInteractionPoint() (schemas.Point, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastPoint == nil {
		return schemas.Point{}, false
	}
	return *m.lastPoint, true
}

// Summary renders the trail as text for the reasoning service: compacted
// lines first, then the retained records in full detail.
func (m *Memory) Summary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 && len(m.compacted) == 0 {
		return "No steps taken yet."
	}

	var b strings.Builder
	b.WriteString("Steps executed so far:\n")
	for _, line := range m.compacted {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for i, r := range m.records {
		fmt.Fprintf(&b, "%d. [rev %d, attempt %d] %s", len(m.compacted)+i+1, r.PlanRevision, r.Attempt, describeStep(r.Step))
		if r.Resolved != nil {
			fmt.Fprintf(&b, " at (%d,%d)", r.Resolved.X, r.Resolved.Y)
		}
		fmt.Fprintf(&b, " -> executor=%s, judgment=%s", r.Executor.Status, r.Judgment.Verdict)
		if r.Executor.ErrorCode != "" {
			fmt.Fprintf(&b, " (error=%s)", r.Executor.ErrorCode)
		}
		if r.Judgment.Explanation != "" {
			fmt.Fprintf(&b, ": %s", r.Judgment.Explanation)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// compactLocked folds records from plan revisions older than current into
// one-line summaries. All records of the current revision are always kept.
func (m *Memory) compactLocked(currentRevision int) {
	kept := m.records[:0]
	for _, r := range m.records {
		if r.PlanRevision == currentRevision {
			kept = append(kept, r)
			continue
		}
		m.compacted = append(m.compacted, fmt.Sprintf("- [rev %d] %s: %s",
			r.PlanRevision, describeStep(r.Step), r.Judgment.Verdict))
	}
	if len(kept) < len(m.records) {
		m.logger.Debug("Compacted older plan revisions",
			zap.Int("kept", len(kept)),
			zap.Int("compacted_total", len(m.compacted)))
	}
	m.records = kept
}

func describeStep(s schemas.Step) string {
	switch s.Kind {
	case schemas.ActionClickTarget, schemas.ActionDoubleClickTarget:
		return fmt.Sprintf("%s %q", s.Kind, s.Target)
	case schemas.ActionTypeText:
		return fmt.Sprintf("%s %q", s.Kind, truncate(s.Params.Text, 40))
	case schemas.ActionKeyCombo:
		return fmt.Sprintf("%s %s", s.Kind, strings.Join(s.Params.Keys, "+"))
	case schemas.ActionScroll:
		return fmt.Sprintf("%s %s by %d", s.Kind, s.Params.ScrollDirection, s.Params.ScrollAmount)
	case schemas.ActionRunCommand:
		return fmt.Sprintf("%s %q", s.Kind, truncate(s.Params.Command, 40))
	case schemas.ActionOpenApplication:
		return fmt.Sprintf("%s %q", s.Kind, s.Params.Application)
	case schemas.ActionWait:
		return fmt.Sprintf("%s %s", s.Kind, s.Params.WaitDuration)
	default:
		return fmt.Sprintf("%s %s", s.Kind, truncate(s.Params.Description, 40))
	}
}

// truncate cuts s after n runes, never mid-rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
