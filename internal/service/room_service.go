package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"homestay/internal/models"

	"github.com/rs/zerolog"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomService serves the room catalog from memory.
type RoomService struct {
	logger   *zerolog.Logger
	rooms    []models.Room
	roomsMap map[int64]models.Room
	mu       sync.RWMutex
}

func NewRoomService(rooms []models.Room, logger *zerolog.Logger) *RoomService {
	s := &RoomService{logger: logger}
	s.SetRooms(rooms)
	return s
}

// SetRooms replaces the catalog. Rooms are listed by ID.
func (s *RoomService) SetRooms(rooms []models.Room) {
	sorted := make([]models.Room, len(rooms))
	copy(sorted, rooms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	roomsMap := make(map[int64]models.Room, len(sorted))
	for _, room := range sorted {
		roomsMap[room.ID] = room
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = sorted
	s.roomsMap = roomsMap
	s.logger.Debug().Int("rooms", len(sorted)).Msg("room catalog updated")
}

func (s *RoomService) GetRooms(ctx context.Context) ([]models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Room, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

func (s *RoomService) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.roomsMap[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRoomNotFound, id)
	}
	return &room, nil
}
