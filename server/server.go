package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/rpc"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/punishpad/server/broadcast"
	"github.com/punishpad/server/config"
	"github.com/punishpad/server/game"
	"github.com/punishpad/server/logger"
	"github.com/punishpad/server/monitor"
	"github.com/punishpad/server/network"
	"github.com/punishpad/server/notify"
	"github.com/punishpad/server/persistence"
	"github.com/punishpad/server/room"
	punishpad_rpc "github.com/punishpad/server/rpc"
	"github.com/punishpad/server/services"
	"github.com/punishpad/server/session"
	"github.com/punishpad/server/timer"
)

// GameServer is the session gateway: it accepts WebSocket connections,
// routes inbound events into the room registry and phrase engine, and fans
// results back out to room members.
type GameServer struct {
	cfg            config.ServerConfig
	roomCfg        config.RoomConfig
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	dispatcher     notify.Dispatcher
	archive        *services.ArchiveService
	monitor        *monitor.Monitor
	rpcServer      *punishpad_rpc.Server
	timers         *timer.Manager
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database, dispatcher notify.Dispatcher, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		cfg:            cfg.Server,
		roomCfg:        cfg.Room,
		roomManager:    room.NewManager(),
		sessionManager: session.NewManager(),
		dispatcher:     dispatcher,
		archive:        services.NewArchiveService(db),
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS policy lives at the edge proxy
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager)

	if cfg.Server.RPCAddress != "" {
		rpcServer, err := punishpad_rpc.NewServer(cfg.Server.RPCAddress)
		if err != nil {
			logger.Log.Fatalf("Failed to create RPC server: %v", err)
		}
		s.rpcServer = rpcServer
		rpc.Register(punishpad_rpc.NewRoomService(s.roomManager, s.archive))
	}

	return s
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	s.startSweeper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/send-token", s.handleSendToken)

	logger.Log.Infof("Game server listening on %s", s.cfg.HTTPAddress)
	return http.ListenAndServe(s.cfg.HTTPAddress, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	if s.timers != nil {
		s.timers.Stop()
	}
}

// startSweeper arms the periodic room GC when a TTL is configured. Live
// deployments leak rooms without this; the map has no other deletion path.
func (s *GameServer) startSweeper() {
	if s.roomCfg.IdleTTL <= 0 && s.roomCfg.FinishedTTL <= 0 {
		return
	}

	interval := s.roomCfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s.timers = timer.NewManager()
	s.timers.AddTimer(interval, interval, func() {
		evicted := s.roomManager.Sweep(s.roomCfg.IdleTTL, s.roomCfg.FinishedTTL)
		if evicted > 0 {
			logger.Log.Infof("Room sweeper evicted %d rooms", evicted)
		}
		s.setActiveRooms()
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncConnectedClients()
	}

	logger.Log.Infof("Client connected from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Client disconnected: %s", sess.GetID())
		for _, roomID := range sess.Rooms() {
			if r, exists := s.roomManager.GetRoom(roomID); exists {
				r.RemoveMember(sess.GetID())
			}
		}
		s.sessionManager.Remove(sess.GetID())
		if s.monitor != nil {
			s.monitor.DecConnectedClients()
		}
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			ev, err := conn.ReadEvent()
			if err != nil {
				if ev == nil {
					// transport error, connection is gone
					return
				}
				logger.Log.Warnf("Dropping bad event from %s: %v", sess.GetID(), err)
				if ev.Seq != 0 {
					sess.Ack(ev.Seq, network.AckError{Error: "unsupported event"})
				}
				continue
			}
			s.handleEvent(sess, ev)
		}
	}
}

func (s *GameServer) handleEvent(sess *session.Session, ev *network.Event) {
	switch ev.Type {
	case network.EventCreateRoom:
		s.handleCreateRoom(sess, ev)
	case network.EventJoinRoom:
		s.handleJoinRoom(sess, ev)
	case network.EventTyping:
		s.handleTyping(sess, ev)
	case network.EventSubmitPhrase:
		s.handleSubmitPhrase(sess, ev)
	case network.EventPunishmentMessage:
		s.handlePunishmentMessage(sess, ev)
	}
}

// RoomAck is the payload answering create-room and join-room requests.
type RoomAck struct {
	Room  *room.State `json:"room,omitempty"`
	Error string      `json:"error,omitempty"`
}

func (s *GameServer) handleCreateRoom(sess *session.Session, ev *network.Event) {
	var req network.CreateRoomRequest
	if err := json.Unmarshal(ev.Payload, &req); err != nil {
		sess.Ack(ev.Seq, RoomAck{Error: "malformed create-room payload"})
		return
	}

	repetition, err := strconv.Atoi(req.Repetitions)
	if err != nil || repetition <= 0 {
		sess.Ack(ev.Seq, RoomAck{Error: "repetitions must be a positive integer"})
		return
	}

	r := s.roomManager.CreateRoom(req.Phrase, repetition, req.OwnerName, req.PartnerName, sess.GetID())
	r.AddMember(sess)
	sess.JoinRoom(r.ID)
	s.setActiveRooms()

	logger.Log.Infof("Session %s created room %s (repetition %d)", sess.GetID(), r.ID, repetition)

	state := r.Snapshot()
	sess.Ack(ev.Seq, RoomAck{Room: &state})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, ev *network.Event) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(ev.Payload, &req); err != nil {
		sess.Ack(ev.Seq, RoomAck{Error: "malformed join-room payload"})
		return
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		sess.Ack(ev.Seq, RoomAck{Error: "Room not found"})
		return
	}

	r.AddMember(sess)
	sess.JoinRoom(r.ID)

	// Peers learn about the new member; the member itself gets the full
	// room state in the ack.
	s.broadcaster.BroadcastToOthers(r.ID, sess.GetID(), network.EventJoinedRoom, network.JoinedRoomNotice{
		RoomID:       r.ID,
		ConnectionID: sess.GetID(),
	})

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), r.ID)

	state := r.Snapshot()
	sess.Ack(ev.Seq, RoomAck{Room: &state})
}

func (s *GameServer) handleTyping(sess *session.Session, ev *network.Event) {
	var req network.TypingRequest
	if err := json.Unmarshal(ev.Payload, &req); err != nil {
		return
	}

	// Live-typing telemetry: update the room if it exists, relay either way.
	s.roomManager.Mutate(req.RoomID, func(r *room.Room) error {
		r.CurrentPhrase = req.Text
		return nil
	})
	s.broadcaster.BroadcastToOthers(req.RoomID, sess.GetID(), network.EventTyping, network.TypingNotice{Text: req.Text})
}

func (s *GameServer) handleSubmitPhrase(sess *session.Session, ev *network.Event) {
	var req network.SubmitPhraseRequest
	if err := json.Unmarshal(ev.Payload, &req); err != nil {
		return
	}

	at, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		at = time.Now()
	}

	start := time.Now()
	var result game.Result
	state, err := s.roomManager.Mutate(req.RoomID, func(r *room.Room) error {
		var submitErr error
		result, submitErr = game.Submit(r, req.Phrase, at)
		return submitErr
	})
	if err != nil {
		// Unknown room, or the room is already finished. Both are silent
		// no-ops: counters, transcript and broadcasts stay untouched.
		return
	}

	if s.monitor != nil {
		s.monitor.IncSubmissions(result.Correct)
		s.monitor.ObserveSubmissionLatency(time.Since(start))
	}

	// Submission results go to the whole room, submitter included.
	s.broadcaster.BroadcastToRoom(req.RoomID, network.EventPhraseSubmitted, network.PhraseSubmittedNotice{
		Hits:   result.Hits,
		Misses: result.Misses,
	})
	s.broadcaster.BroadcastToRoom(req.RoomID, network.EventMessageAdded, state.Messages)

	if result.JustFinished {
		logger.Log.Infof("Room %s finished (%d hits, %d misses)", state.RoomID, state.Hits, state.Misses)
		s.broadcaster.BroadcastToRoom(req.RoomID, network.EventRoomFinished, network.RoomFinishedNotice{RoomID: state.RoomID})
		if s.monitor != nil {
			s.monitor.IncRoomsFinished()
		}
		// Notification and archival are best effort and must not block the
		// event loop.
		go s.finishRoom(state)
	}
}

func (s *GameServer) handlePunishmentMessage(sess *session.Session, ev *network.Event) {
	var req network.PunishmentMessageRequest
	if err := json.Unmarshal(ev.Payload, &req); err != nil {
		return
	}

	// Pure relay, no state mutation.
	s.broadcaster.BroadcastToOthers(req.RoomID, sess.GetID(), network.EventPunishmentMessage, network.PunishmentMessageNotice{
		RoomID:  req.RoomID,
		Message: req.Message,
	})
}

// finishRoom runs detached from the submitter's event handling: push
// notification to every registered token, then the archive write.
func (s *GameServer) finishRoom(state room.State) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(state.Tokens) > 0 {
		err := s.dispatcher.SendMulticast(ctx, notify.Message{
			Tokens: state.Tokens,
			Title:  "Punish Pad - room finished",
			Body:   fmt.Sprintf("%s has finished their punishment.", state.PartnerName),
			Link:   fmt.Sprintf("%s/room/%s", s.cfg.FrontendURL, state.RoomID),
		})
		if err != nil {
			logger.Log.Warnf("Push notification for room %s: %v", state.RoomID, err)
			if s.monitor != nil {
				s.monitor.IncNotificationFailures()
			}
		}
	}

	if s.archive.Enabled() {
		if err := s.archive.ArchiveRoom(state, time.Now()); err != nil {
			logger.Log.Warnf("Archiving room %s failed: %v", state.RoomID, err)
		}
	}
}

func (s *GameServer) setActiveRooms() {
	if s.monitor != nil {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	}
}
