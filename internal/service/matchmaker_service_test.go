package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/codeclash/arena-backend/internal/model"
)

func TestGenerateRoomCodeShape(t *testing.T) {
	code, err := GenerateRoomCode()
	if err != nil {
		t.Fatalf("GenerateRoomCode() error: %v", err)
	}
	if len(code) != roomCodeLength {
		t.Fatalf("code %q has length %d, want %d", code, len(code), roomCodeLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code, r)
		}
	}
}

func TestGenerateRoomCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateRoomCode()
		if err != nil {
			t.Fatalf("GenerateRoomCode() error: %v", err)
		}
		seen[code] = true
	}
	// 50 draws from a 36^6 space colliding down to a handful would mean the
	// generator is broken.
	if len(seen) < 45 {
		t.Fatalf("only %d distinct codes out of 50 draws", len(seen))
	}
}

func TestClassifyRoomState(t *testing.T) {
	cases := []struct {
		name   string
		status model.SessionStatus
		count  int
		want   error
	}{
		{"joinable waiting room", model.SessionStatusWaiting, 1, nil},
		{"full waiting room", model.SessionStatusWaiting, model.MaxDuelParticipants, ErrRoomFull},
		{"already started", model.SessionStatusOngoing, 2, ErrRoomAlreadyStarted},
		{"finished room", model.SessionStatusFinished, 2, ErrRoomNotFound},
		{"cancelled room", model.SessionStatusCancelled, 1, ErrRoomNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := &model.Session{Status: tc.status, ParticipantCount: tc.count}
			if got := classifyRoomState(session); !errors.Is(got, tc.want) {
				t.Fatalf("classifyRoomState() = %v, want %v", got, tc.want)
			}
		})
	}
}
