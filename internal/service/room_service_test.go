package service

import (
	"context"
	"testing"

	"homestay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService(t *testing.T) {
	logger := zerolog.Nop()
	rooms := []models.Room{
		{ID: 2, Name: "Standard Room", PricePerNight: 45},
		{ID: 1, Name: "Deluxe Room", PricePerNight: 57},
	}
	s := NewRoomService(rooms, &logger)
	ctx := context.Background()

	t.Run("GetRoomsSorted", func(t *testing.T) {
		got, err := s.GetRooms(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
	})

	t.Run("GetRoomsReturnsCopy", func(t *testing.T) {
		got, _ := s.GetRooms(ctx)
		got[0].PricePerNight = 0
		room, err := s.GetRoomByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(57), room.PricePerNight)
	})

	t.Run("GetRoomByIDMissing", func(t *testing.T) {
		room, err := s.GetRoomByID(ctx, 99)
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.Nil(t, room)
	})

	t.Run("SetRooms", func(t *testing.T) {
		s.SetRooms([]models.Room{{ID: 3, Name: "Suite", PricePerNight: 120}})
		_, err := s.GetRoomByID(ctx, 1)
		assert.ErrorIs(t, err, ErrRoomNotFound)
		room, err := s.GetRoomByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "Suite", room.Name)
	})
}
