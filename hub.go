package main

import (
	"context"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"driftline/server/internal/proto"
	"driftline/server/internal/sim"
	"driftline/server/internal/telemetry"
	"driftline/server/internal/timeline"
	"driftline/server/internal/world"
	"driftline/server/logging"
	"driftline/server/logging/rollback"
)

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// send writes one frame under the subscriber's write lock. A detached
// subscriber silently drops the frame.
func (s *subscriber) send(data []byte) error {
	if s == nil || s.conn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *subscriber) close() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Close()
}

type clientState struct {
	pawnID        sim.ActorID
	sub           *subscriber
	lastHeartbeat time.Time
}

// outcome is a callback firing queued while the timeline lock is held and
// delivered to the submitting client afterwards.
type outcome struct {
	owner  sim.ActorID
	target sim.ActorID
	ok     bool
}

// Hub owns the timeline and every connected client. All timeline access is
// serialized under mu; the timeline itself is single-threaded by contract.
type Hub struct {
	cfg       Config
	publisher logging.Publisher
	metrics   *logging.Metrics
	logger    telemetry.Logger

	mu       sync.Mutex
	timeline *timeline.Timeline
	clients  map[sim.ActorID]*clientState
	tick     uint64
	pending  []outcome

	nextID atomic.Uint64
}

func newHub(cfg Config, publisher logging.Publisher, metrics *logging.Metrics) *Hub {
	tl := timeline.New()
	tl.SetMetrics(telemetry.WrapMetrics(metrics))
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		cfg:       cfg,
		publisher: publisher,
		metrics:   metrics,
		logger:    telemetry.WrapLogger(log.Default()),
		timeline:  tl,
		clients:   make(map[sim.ActorID]*clientState),
	}
}

func spawnPosition(id sim.ActorID) (float64, float64) {
	slot := uint64(id-1) % uint64(spawnPerRow*spawnPerRow)
	col := slot % spawnPerRow
	row := slot / spawnPerRow
	return spawnMarginX + float64(col)*spawnStride, spawnMarginY + float64(row)*spawnStride
}

// Join allocates a pawn, spawns it at the current tick, and registers the
// client. The websocket subscription arrives separately.
func (h *Hub) Join() proto.JoinedMessage {
	id := sim.ActorID(h.nextID.Add(1))
	x, y := spawnPosition(id)

	h.mu.Lock()
	tick := h.tick
	h.timeline.Add(world.NewSpawnPawn(sim.Timestamp(tick), id, x, y))
	outcomes := h.drainOutcomesLocked()
	h.clients[id] = &clientState{pawnID: id, lastHeartbeat: time.Now()}
	h.mu.Unlock()

	h.deliverOutcomes(outcomes)
	return proto.NewJoinedMessage(uint64(id), tick)
}

// Subscribe attaches a websocket connection to a joined pawn and returns
// the current reconciled state for the initial frame.
func (h *Hub) Subscribe(pawnID sim.ActorID, conn *websocket.Conn) (*subscriber, proto.StateMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[pawnID]
	if !ok {
		return nil, proto.StateMessage{}, false
	}
	client.lastHeartbeat = time.Now()
	if client.sub != nil {
		client.sub.close()
	}
	sub := &subscriber{conn: conn}
	client.sub = sub

	return sub, proto.NewStateMessage(h.tick, time.Now().UnixMilli(), h.pawnViewsLocked()), true
}

// SubmitEvent turns a client frame into a world event, wraps it so outcome
// edges flow back to the submitter, and inserts it into the timeline. Late
// events roll history back; events behind the pruned horizon are refused.
func (h *Hub) SubmitEvent(pawnID sim.ActorID, msg proto.ClientMessage) {
	h.mu.Lock()
	tick := h.tick

	at := sim.Timestamp(msg.At)
	if msg.At == 0 {
		at = sim.Timestamp(tick)
	}
	target := sim.ActorID(msg.Target)
	if msg.Target == 0 {
		target = pawnID
	}

	event := buildWorldEvent(msg.Kind, at, target, msg)
	if event == nil {
		h.mu.Unlock()
		h.sendTo(pawnID, proto.NewEventRejectMessage(proto.RejectUnknownKind, uint64(at)))
		return
	}

	wrapped := sim.NewCallbackEvent(event, func(id sim.ActorID, ok bool) {
		h.pending = append(h.pending, outcome{owner: pawnID, target: id, ok: ok})
	})

	ok, rebuilt := h.timeline.Add(wrapped)
	outcomes := h.drainOutcomesLocked()
	_, oldest, _ := h.timeline.Window()
	h.mu.Unlock()

	actor := logging.EntityRef{ID: formatActorID(pawnID), Kind: logging.EntityKindPawn}
	if !ok {
		rollback.Rejected(context.Background(), h.publisher, tick, actor, rollback.RejectedPayload{
			EventAt: uint64(at),
			Oldest:  uint64(oldest),
		})
		h.sendTo(pawnID, proto.NewEventRejectMessage(proto.RejectOutOfHorizon, uint64(at)))
		return
	}
	if rebuilt > 0 {
		rollback.Resimulated(context.Background(), h.publisher, tick, actor, rollback.ResimulatedPayload{
			EventAt:          uint64(at),
			SnapshotsRebuilt: rebuilt,
		})
	}
	h.deliverOutcomes(outcomes)
}

// buildWorldEvent maps a wire event kind onto a world event. Unknown kinds
// yield nil.
func buildWorldEvent(kind string, at sim.Timestamp, target sim.ActorID, msg proto.ClientMessage) sim.Event {
	switch kind {
	case proto.KindSpawn:
		return world.NewSpawnPawn(at, target, msg.DX, msg.DY)
	case proto.KindMove:
		return world.NewMovePawn(at, target, msg.DX, msg.DY)
	case proto.KindStrike:
		return world.NewStrikePawn(at, target, msg.Amount)
	case proto.KindHeal:
		return world.NewHealPawn(at, target, msg.Amount)
	case proto.KindDespawn:
		return world.NewDespawnPawn(at, target)
	default:
		return nil
	}
}

func (h *Hub) drainOutcomesLocked() []outcome {
	outcomes := h.pending
	h.pending = nil
	return outcomes
}

func (h *Hub) deliverOutcomes(outcomes []outcome) {
	for _, o := range outcomes {
		h.sendTo(o.owner, proto.NewEventOutcomeMessage(uint64(o.target), o.ok))
	}
}

// sendTo encodes and delivers one message to a client's subscriber. Delivery
// failures disconnect the client.
func (h *Hub) sendTo(pawnID sim.ActorID, msg any) {
	h.mu.Lock()
	client, ok := h.clients[pawnID]
	var sub *subscriber
	if ok {
		sub = client.sub
	}
	h.mu.Unlock()
	if sub == nil {
		return
	}

	data, err := proto.Encode(msg)
	if err != nil {
		h.logger.Printf("failed to encode message for pawn %d: %v", pawnID, err)
		return
	}
	if err := sub.send(data); err != nil {
		h.logger.Printf("failed to send to pawn %d: %v", pawnID, err)
		h.Disconnect(pawnID)
	}
}

// UpdateHeartbeat refreshes a client's liveness and returns the ack.
func (h *Hub) UpdateHeartbeat(pawnID sim.ActorID, receivedAt time.Time, clientSent int64) (proto.HeartbeatMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[pawnID]
	if !ok {
		return proto.HeartbeatMessage{}, false
	}
	client.lastHeartbeat = receivedAt
	return proto.NewHeartbeatMessage(receivedAt.UnixMilli(), clientSent), true
}

// Disconnect detaches a client and despawns its pawn at the current tick.
// A despawn inserted ahead of predicted future events resimulates them; the
// outcome edges queued by their wrappers are delivered to submitters that
// are still connected; those owned by the departing client are dropped.
func (h *Hub) Disconnect(pawnID sim.ActorID) {
	h.mu.Lock()
	client, ok := h.clients[pawnID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, pawnID)
	sub := client.sub
	h.timeline.Add(world.NewDespawnPawn(sim.Timestamp(h.tick), pawnID))
	outcomes := h.drainOutcomesLocked()
	h.mu.Unlock()

	sub.close()
	h.deliverOutcomes(outcomes)
}

// advance runs one tick: heartbeat expiry, snapshot cadence, and the state
// broadcast payload.
func (h *Hub) advance(now time.Time) proto.StateMessage {
	h.mu.Lock()
	h.tick++
	tick := h.tick

	var toClose []*subscriber
	for id, client := range h.clients {
		if now.Sub(client.lastHeartbeat) <= h.cfg.DisconnectAfter {
			continue
		}
		if client.sub != nil {
			toClose = append(toClose, client.sub)
		}
		delete(h.clients, id)
		h.timeline.Add(world.NewDespawnPawn(sim.Timestamp(tick), id))
		h.logger.Printf("disconnecting pawn %d due to heartbeat timeout", id)
	}

	var pruned int
	if tick%h.cfg.SnapshotEvery == 0 {
		h.timeline.SnapshotAt(sim.Timestamp(tick))
		pruned = h.timeline.LimitSnapshots(h.cfg.MaxSnapshots)
	}
	count, oldest, _ := h.timeline.Window()
	outcomes := h.drainOutcomesLocked()

	msg := proto.NewStateMessage(tick, now.UnixMilli(), h.pawnViewsLocked())
	h.mu.Unlock()

	if pruned > 0 {
		rollback.SnapshotsPruned(context.Background(), h.publisher, tick, rollback.PrunedPayload{
			Dropped:  pruned,
			Retained: count,
			Oldest:   uint64(oldest),
		})
	}

	for _, sub := range toClose {
		sub.close()
	}
	h.deliverOutcomes(outcomes)
	return msg
}

// pawnViewsLocked renders the reconciled stage in deterministic id order.
func (h *Hub) pawnViewsLocked() []proto.PawnView {
	stage := h.timeline.Stage()
	views := make([]proto.PawnView, 0, stage.Size())
	for _, id := range stage.IDs() {
		state, ok := stage.Find(id)
		if !ok {
			continue
		}
		pawn, ok := state.(*world.PawnState)
		if !ok {
			continue
		}
		views = append(views, proto.PawnView{
			ID:     uint64(id),
			X:      pawn.X,
			Y:      pawn.Y,
			Health: pawn.Health,
		})
	}
	return views
}

// broadcastState fans the frame out to every subscriber.
func (h *Hub) broadcastState(msg proto.StateMessage) {
	data, err := proto.Encode(msg)
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[sim.ActorID]*subscriber, len(h.clients))
	for id, client := range h.clients {
		if client.sub != nil {
			subs[id] = client.sub
		}
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.send(data); err != nil {
			h.logger.Printf("failed to send update to pawn %d: %v", id, err)
			h.Disconnect(id)
		}
	}
}

// Run drives the fixed-rate tick loop until stop closes.
func (h *Hub) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			h.broadcastState(h.advance(now))
		}
	}
}

// diagnostics mirrors hub state for the diagnostics endpoint.
type diagnostics struct {
	Tick           uint64            `json:"tick"`
	Clients        int               `json:"clients"`
	Pawns          int               `json:"pawns"`
	SnapshotCount  int               `json:"snapshotCount"`
	OldestSnapshot uint64            `json:"oldestSnapshot"`
	NewestSnapshot uint64            `json:"newestSnapshot"`
	Counters       map[string]uint64 `json:"counters,omitempty"`
}

func (h *Hub) DiagnosticsSnapshot() diagnostics {
	h.mu.Lock()
	defer h.mu.Unlock()

	count, oldest, newest := h.timeline.Window()
	return diagnostics{
		Tick:           h.tick,
		Clients:        len(h.clients),
		Pawns:          h.timeline.Stage().Size(),
		SnapshotCount:  count,
		OldestSnapshot: uint64(oldest),
		NewestSnapshot: uint64(newest),
		Counters:       h.metrics.Snapshot(),
	}
}

func formatActorID(id sim.ActorID) string {
	return "pawn-" + strconv.FormatUint(uint64(id), 10)
}
