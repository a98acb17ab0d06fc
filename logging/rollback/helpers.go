package rollback

import (
	"context"

	"driftline/server/logging"
)

const (
	// EventResimulated is emitted after an out-of-order insertion forced the
	// timeline to rebuild a suffix of its snapshot chain.
	EventResimulated logging.EventType = "rollback.resimulated"
	// EventRejected is emitted when an event's timestamp precedes the oldest
	// retained snapshot and the insertion is refused.
	EventRejected logging.EventType = "rollback.event_rejected"
	// EventSnapshotsPruned is emitted when old snapshots are dropped from
	// the chain.
	EventSnapshotsPruned logging.EventType = "rollback.snapshots_pruned"
)

// ResimulatedPayload captures how much history an insertion rebuilt.
type ResimulatedPayload struct {
	EventAt          uint64 `json:"eventAt"`
	SnapshotsRebuilt int    `json:"snapshotsRebuilt"`
}

// Resimulated publishes an info event after a rollback-and-replay pass.
func Resimulated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ResimulatedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResimulated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRollback,
		Payload:  payload,
	})
}

// RejectedPayload captures an insertion that fell behind the horizon.
type RejectedPayload struct {
	EventAt uint64 `json:"eventAt"`
	Oldest  uint64 `json:"oldest"`
}

// Rejected publishes a warning for an out-of-horizon insertion.
func Rejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryRollback,
		Payload:  payload,
	})
}

// PrunedPayload captures a snapshot chain trim.
type PrunedPayload struct {
	Dropped  int    `json:"dropped"`
	Retained int    `json:"retained"`
	Oldest   uint64 `json:"oldest"`
}

// SnapshotsPruned publishes a debug event after LimitSnapshots drops
// history.
func SnapshotsPruned(ctx context.Context, pub logging.Publisher, tick uint64, payload PrunedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSnapshotsPruned,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindTimeline},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRollback,
		Payload:  payload,
	})
}
