package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{SessionStatusWaiting, SessionStatusOngoing, true},
		{SessionStatusWaiting, SessionStatusCancelled, true},
		{SessionStatusOngoing, SessionStatusFinished, true},
		{SessionStatusOngoing, SessionStatusCancelled, true},

		// No skipping forward or moving backwards.
		{SessionStatusWaiting, SessionStatusFinished, false},
		{SessionStatusOngoing, SessionStatusWaiting, false},
		{SessionStatusFinished, SessionStatusOngoing, false},
		{SessionStatusFinished, SessionStatusCancelled, false},
		{SessionStatusCancelled, SessionStatusWaiting, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDeadlineAndOverdue(t *testing.T) {
	s := &Session{Status: SessionStatusOngoing, TimeLimitSeconds: 600}

	if _, ok := s.Deadline(); ok {
		t.Fatal("Deadline() ok = true before the session started")
	}
	if s.Overdue(time.Now()) {
		t.Fatal("unstarted session reported overdue")
	}

	start := time.Now().Add(-10 * time.Minute)
	s.StartedAt = &start

	deadline, ok := s.Deadline()
	if !ok {
		t.Fatal("Deadline() ok = false after start")
	}
	if want := start.Add(10 * time.Minute); !deadline.Equal(want) {
		t.Fatalf("Deadline() = %v, want %v", deadline, want)
	}

	if !s.Overdue(time.Now()) {
		t.Fatal("session past its limit not reported overdue")
	}
	if s.Overdue(start.Add(5 * time.Minute)) {
		t.Fatal("session within its limit reported overdue")
	}

	// Terminal sessions are never overdue, no matter the clock.
	s.Status = SessionStatusFinished
	if s.Overdue(time.Now()) {
		t.Fatal("finished session reported overdue")
	}
}

func TestParticipantLookup(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := &Session{Participants: []Participant{
		{UserID: a, DisplayName: "alice"},
		{UserID: b, DisplayName: "bob"},
	}}

	if p := s.ParticipantByUser(a); p == nil || p.DisplayName != "alice" {
		t.Fatalf("ParticipantByUser(a) = %+v", p)
	}
	if p := s.ParticipantByUser(uuid.New()); p != nil {
		t.Fatalf("ParticipantByUser(stranger) = %+v, want nil", p)
	}
	if o := s.Opponent(a); o == nil || o.UserID != b {
		t.Fatalf("Opponent(a) = %+v", o)
	}
}

func TestAllNonLeftFinished(t *testing.T) {
	cases := []struct {
		name     string
		statuses []ParticipantStatus
		want     bool
	}{
		{"both finished", []ParticipantStatus{ParticipantStatusFinished, ParticipantStatusFinished}, true},
		{"one still active", []ParticipantStatus{ParticipantStatusFinished, ParticipantStatusActive}, false},
		{"finished plus left", []ParticipantStatus{ParticipantStatusFinished, ParticipantStatusLeft}, true},
		{"active plus left", []ParticipantStatus{ParticipantStatusActive, ParticipantStatusLeft}, false},
		{"everyone left", []ParticipantStatus{ParticipantStatusLeft, ParticipantStatusLeft}, false},
		{"empty", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps := make([]Participant, len(tc.statuses))
			for i, st := range tc.statuses {
				ps[i] = Participant{UserID: uuid.New(), Status: st}
			}
			if got := AllNonLeftFinished(ps); got != tc.want {
				t.Fatalf("AllNonLeftFinished() = %v, want %v", got, tc.want)
			}
		})
	}
}
