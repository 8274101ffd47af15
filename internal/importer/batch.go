package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fuelimport/internal/layout"
)

// Status is the lifecycle state of an import batch. A batch moves forward
// only; the two terminal states never transition again.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDetecting   Status = "detecting"
	StatusClassifying Status = "classifying"
	StatusProcessing  Status = "processing"
	StatusFinalizing  Status = "finalizing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Terminal reports whether the status ends the batch lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// next lists the forward transitions. StatusFailed is reachable from any
// non-terminal state and is not listed.
var next = map[Status]Status{
	StatusPending:     StatusDetecting,
	StatusDetecting:   StatusClassifying,
	StatusClassifying: StatusProcessing,
	StatusProcessing:  StatusFinalizing,
	StatusFinalizing:  StatusCompleted,
}

// Batch is the audit record for one file import. One batch per file, even
// when a directory import runs several files concurrently.
type Batch struct {
	ID       string
	FileName string
	Layout   layout.Tag
	Encoding string
	Status   Status

	TotalRows     int
	SuccessRows   int
	ErrorRows     int
	DuplicateRows int
	SkippedRows   int

	ErrorMessage string

	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewBatch starts the audit record for a file. The batch ID embeds the
// start timestamp so operators can eyeball ordering, plus a random suffix
// so two imports in the same second stay distinct.
func NewBatch(fileName string) *Batch {
	now := time.Now()
	return &Batch{
		ID:        newBatchID(now),
		FileName:  fileName,
		Status:    StatusPending,
		StartedAt: now,
	}
}

func newBatchID(now time.Time) string {
	return fmt.Sprintf("BATCH_%s_%s",
		now.Format("20060102_150405"),
		uuid.NewString()[:8])
}

// advance moves the batch to the given status, enforcing forward-only
// transitions. Completed and failed batches never change again.
func (b *Batch) advance(to Status) error {
	if b.Status.Terminal() {
		return fmt.Errorf("batch %s is %s, cannot move to %s", b.ID, b.Status, to)
	}
	if to == StatusFailed {
		b.Status = StatusFailed
		b.finish()
		return nil
	}
	if next[b.Status] != to {
		return fmt.Errorf("batch %s cannot move from %s to %s", b.ID, b.Status, to)
	}
	b.Status = to
	if to.Terminal() {
		b.finish()
	}
	return nil
}

// fail marks the batch failed with the given cause.
func (b *Batch) fail(err error) {
	b.ErrorMessage = err.Error()
	_ = b.advance(StatusFailed)
}

func (b *Batch) finish() {
	now := time.Now()
	b.CompletedAt = &now
}

// Duration is the wall time the batch has run, final once terminal.
func (b *Batch) Duration() time.Duration {
	if b.CompletedAt != nil {
		return b.CompletedAt.Sub(b.StartedAt)
	}
	return time.Since(b.StartedAt)
}
