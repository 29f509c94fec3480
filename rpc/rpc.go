package rpc

import (
	"net"
	"net/rpc"

	"github.com/punishpad/server/logger"
	"github.com/punishpad/server/models"
	"github.com/punishpad/server/room"
	"github.com/punishpad/server/services"
)

// Server manages the RPC listener. The RPC surface is a read-only ops tool:
// inspect live rooms and query the session archive.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomService exposes the inspection methods over net/rpc. Methods follow
// the net/rpc signature: exported args, pointer reply, error return.
type RoomService struct {
	roomManager *room.Manager
	archive     *services.ArchiveService
}

func NewRoomService(roomManager *room.Manager, archive *services.ArchiveService) *RoomService {
	return &RoomService{roomManager: roomManager, archive: archive}
}

type GetRoomArgs struct {
	RoomID string
}

type GetRoomReply struct {
	Room room.State
}

// GetRoom returns a live room's state, falling back to the archive for
// finished rooms that were already evicted.
func (rs *RoomService) GetRoom(args *GetRoomArgs, reply *GetRoomReply) error {
	if r, exists := rs.roomManager.GetRoom(args.RoomID); exists {
		reply.Room = r.Snapshot()
		return nil
	}

	record, err := rs.archive.GetSessionRecord(args.RoomID)
	if err != nil {
		return room.ErrRoomNotFound
	}

	messages := make([]room.Message, 0, len(record.Transcript))
	for _, e := range record.Transcript {
		messages = append(messages, room.Message{
			ID:        e.ID,
			Content:   e.Content,
			CreatedAt: e.CreatedAt,
			Correct:   e.Correct,
		})
	}
	reply.Room = room.State{
		RoomID:      record.RoomID,
		Phrase:      record.Phrase,
		Repetition:  record.Repetition,
		OwnerName:   record.OwnerName,
		PartnerName: record.PartnerName,
		Hits:        record.Hits,
		Misses:      record.Misses,
		Status:      room.StatusFinished,
		Messages:    messages,
	}
	return nil
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.State
}

func (rs *RoomService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, r := range rs.roomManager.Rooms() {
		reply.Rooms = append(reply.Rooms, r.Snapshot())
	}
	return nil
}

type HistoryArgs struct {
	Limit int
}

type HistoryReply struct {
	Records []models.SessionRecord
}

func (rs *RoomService) History(args *HistoryArgs, reply *HistoryReply) error {
	limit := args.Limit
	if limit <= 0 {
		limit = 50
	}
	records, err := rs.archive.History(limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type StatsArgs struct {
	Limit int
}

type StatsReply struct {
	Stats models.SessionStats
}

func (rs *RoomService) Stats(args *StatsArgs, reply *StatsReply) error {
	limit := args.Limit
	if limit <= 0 {
		limit = 1000
	}
	stats, err := rs.archive.Stats(limit)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}
