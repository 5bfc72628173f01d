package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RoomChannel returns the Redis PubSub channel name for a session room.
// All lifecycle events for the room are published here.
func (r *CacheKeyStruct) RoomChannel(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

var CacheKey = NewCacheKeyStruct()
