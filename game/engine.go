// Package game holds the phrase matching engine: the single step function
// that moves a room from one game state to the next on each submission.
package game

import (
	"errors"
	"strings"
	"time"

	"github.com/punishpad/server/ident"
	"github.com/punishpad/server/room"
)

// ErrRoomFinished is returned for submissions against a finished room. The
// room is a terminal state: counters, status and transcript stay untouched
// and the caller must not re-broadcast completion.
var ErrRoomFinished = errors.New("room already finished")

// Result is the outcome of one submission step.
type Result struct {
	Correct      bool
	JustFinished bool
	Hits         int
	Misses       int
	Message      room.Message
}

// Submit applies one phrase submission to the room and reports the outcome.
//
// It must run inside room.Manager.Mutate so the read-compare-increment
// sequence is one indivisible step; evaluating two submissions against the
// same stale counters would lose an increment.
//
// The submission is compared trimmed, but recorded in the transcript
// verbatim. The finish condition fires on the submission that brings hits up
// to the repetition target, and only then.
func Submit(r *room.Room, phrase string, at time.Time) (Result, error) {
	if r.Status == room.StatusFinished {
		return Result{}, ErrRoomFinished
	}

	correct := strings.TrimSpace(phrase) == r.Phrase
	if correct {
		r.Hits++
	} else {
		r.Misses++
	}

	msg := room.Message{
		ID:        ident.NewMessageID(),
		Content:   phrase,
		CreatedAt: at,
		Correct:   correct,
	}
	r.Messages = append(r.Messages, msg)

	justFinished := false
	if r.Hits == r.Repetition {
		r.Status = room.StatusFinished
		justFinished = true
	}

	return Result{
		Correct:      correct,
		JustFinished: justFinished,
		Hits:         r.Hits,
		Misses:       r.Misses,
		Message:      msg,
	}, nil
}
