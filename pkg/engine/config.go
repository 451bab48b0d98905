package engine

import "time"

// Config holds the engine tunables. The illustrative defaults are
// deliberately configuration, not law.
type Config struct {
	// IntakeSkipScore is the intake satisfaction score at or above
	// which the first research pass is skipped.
	IntakeSkipScore float64

	// ResearchCooldown is the minimum elapsed time between research
	// passes within one session.
	ResearchCooldown time.Duration

	// ResearchPendingThreshold is the pending-item count above which a
	// research pass is considered worthwhile.
	ResearchPendingThreshold int

	// ConfidenceThreshold gates auto-filling items from research.
	ConfidenceThreshold float64

	// AttemptCap escalates when any item has been asked more than this
	// many times.
	AttemptCap int

	// ValidationFailureCap escalates when the session accumulates more
	// than this many validation failures.
	ValidationFailureCap int

	// CheckpointRetries and CheckpointBackoff bound the retry loop
	// around a failing checkpoint save. Backoff doubles per attempt.
	CheckpointRetries int
	CheckpointBackoff time.Duration

	// HandoffMessageCount is how many trailing messages a handoff
	// record carries.
	HandoffMessageCount int

	// RetrieveTopK is how many context snippets question phrasing
	// retrieves.
	RetrieveTopK int
}

func DefaultConfig() Config {
	return Config{
		IntakeSkipScore:          0.8,
		ResearchCooldown:         10 * time.Minute,
		ResearchPendingThreshold: 5,
		ConfidenceThreshold:      0.75,
		AttemptCap:               3,
		ValidationFailureCap:     2,
		CheckpointRetries:        3,
		CheckpointBackoff:        200 * time.Millisecond,
		HandoffMessageCount:      10,
		RetrieveTopK:             3,
	}
}

// withDefaults fills zero-valued fields so a partially specified config
// behaves sensibly.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IntakeSkipScore <= 0 {
		c.IntakeSkipScore = d.IntakeSkipScore
	}
	if c.ResearchCooldown <= 0 {
		c.ResearchCooldown = d.ResearchCooldown
	}
	if c.ResearchPendingThreshold <= 0 {
		c.ResearchPendingThreshold = d.ResearchPendingThreshold
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.AttemptCap <= 0 {
		c.AttemptCap = d.AttemptCap
	}
	if c.ValidationFailureCap <= 0 {
		c.ValidationFailureCap = d.ValidationFailureCap
	}
	if c.CheckpointRetries <= 0 {
		c.CheckpointRetries = d.CheckpointRetries
	}
	if c.CheckpointBackoff <= 0 {
		c.CheckpointBackoff = d.CheckpointBackoff
	}
	if c.HandoffMessageCount <= 0 {
		c.HandoffMessageCount = d.HandoffMessageCount
	}
	if c.RetrieveTopK <= 0 {
		c.RetrieveTopK = d.RetrieveTopK
	}
	return c
}
