package game

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/punishpad/server/room"
)

func newTestRoom(t *testing.T, phrase string, repetition int) (*room.Manager, *room.Room) {
	t.Helper()
	manager := room.NewManager()
	r := manager.CreateRoom(phrase, repetition, "owner", "partner", "conn-1")
	return manager, r
}

func submit(t *testing.T, m *room.Manager, roomID, phrase string) (Result, error) {
	t.Helper()
	var result Result
	_, err := m.Mutate(roomID, func(r *room.Room) error {
		var submitErr error
		result, submitErr = Submit(r, phrase, time.Now())
		return submitErr
	})
	return result, err
}

func TestSubmit_CorrectIncrementsHits(t *testing.T) {
	manager, r := newTestRoom(t, "hello world", 3)

	result, err := submit(t, manager, r.ID, "  hello world  ")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !result.Correct {
		t.Error("Trimmed submission matching the phrase should be correct")
	}
	if result.Hits != 1 || result.Misses != 0 {
		t.Errorf("Expected hits=1 misses=0, got hits=%d misses=%d", result.Hits, result.Misses)
	}
	if result.JustFinished {
		t.Error("One hit of three should not finish the room")
	}

	state := r.Snapshot()
	if len(state.Messages) != 1 {
		t.Fatalf("Expected 1 transcript entry, got %d", len(state.Messages))
	}
	if state.Messages[0].Content != "  hello world  " {
		t.Errorf("Transcript must record the submission verbatim, got %q", state.Messages[0].Content)
	}
	if !state.Messages[0].Correct {
		t.Error("Transcript entry should carry the correct flag")
	}
}

func TestSubmit_MismatchIncrementsMisses(t *testing.T) {
	manager, r := newTestRoom(t, "hello", 2)

	result, err := submit(t, manager, r.ID, "helo")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Correct {
		t.Error("Mismatched submission should not be correct")
	}
	if result.Hits != 0 || result.Misses != 1 {
		t.Errorf("Expected hits=0 misses=1, got hits=%d misses=%d", result.Hits, result.Misses)
	}
}

func TestSubmit_FinishesExactlyOnce(t *testing.T) {
	manager, r := newTestRoom(t, "hello", 3)

	// Interleave misses with the three required hits.
	sequence := []string{"hello", "nope", "hello", "wrong again", "hello"}
	finishes := 0
	for _, phrase := range sequence {
		result, err := submit(t, manager, r.ID, phrase)
		if err != nil {
			t.Fatalf("Submit %q failed: %v", phrase, err)
		}
		if result.JustFinished {
			finishes++
		}
	}

	if finishes != 1 {
		t.Fatalf("Expected exactly one finish, got %d", finishes)
	}

	state := r.Snapshot()
	if state.Status != room.StatusFinished {
		t.Errorf("Expected status finished, got %q", state.Status)
	}
	if state.Hits != 3 || state.Misses != 2 {
		t.Errorf("Expected hits=3 misses=2, got hits=%d misses=%d", state.Hits, state.Misses)
	}
	if len(state.Messages) != state.Hits+state.Misses {
		t.Errorf("Transcript length %d != hits+misses %d", len(state.Messages), state.Hits+state.Misses)
	}
}

func TestSubmit_AfterFinishedIsIgnored(t *testing.T) {
	manager, r := newTestRoom(t, "hello", 1)

	if _, err := submit(t, manager, r.ID, "hello"); err != nil {
		t.Fatalf("Finishing submission failed: %v", err)
	}

	before := r.Snapshot()
	_, err := submit(t, manager, r.ID, "hello")
	if err != ErrRoomFinished {
		t.Fatalf("Expected ErrRoomFinished, got %v", err)
	}

	after := r.Snapshot()
	if after.Hits != before.Hits || after.Misses != before.Misses {
		t.Error("Post-finish submission must not change counters")
	}
	if len(after.Messages) != len(before.Messages) {
		t.Error("Post-finish submission must not append to the transcript")
	}
	if after.Status != room.StatusFinished {
		t.Error("Finished is a terminal state")
	}
}

func TestSubmit_TranscriptCorrectFlagRoundTrip(t *testing.T) {
	manager, r := newTestRoom(t, "the quick brown fox", 100)

	submissions := []string{
		"the quick brown fox",
		"the quick brown fix",
		"  the quick brown fox\t",
		"",
	}
	for _, phrase := range submissions {
		if _, err := submit(t, manager, r.ID, phrase); err != nil {
			t.Fatalf("Submit %q failed: %v", phrase, err)
		}
	}

	state := r.Snapshot()
	for i, msg := range state.Messages {
		expected := strings.TrimSpace(submissions[i]) == state.Phrase
		if msg.Correct != expected {
			t.Errorf("Entry %d: correct=%v, expected %v for %q", i, msg.Correct, expected, submissions[i])
		}
	}
}

func TestSubmit_ConcurrentNoLostUpdates(t *testing.T) {
	const correct = 20
	const incorrect = 30

	// Repetition above the number of correct submissions keeps the room
	// playing for the whole test.
	manager, r := newTestRoom(t, "hello", correct+1)

	var wg sync.WaitGroup
	for i := 0; i < correct+incorrect; i++ {
		phrase := "hello"
		if i >= correct {
			phrase = "wrong"
		}
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			manager.Mutate(r.ID, func(r *room.Room) error {
				_, err := Submit(r, p, time.Now())
				return err
			})
		}(phrase)
	}
	wg.Wait()

	state := r.Snapshot()
	if state.Hits != correct {
		t.Errorf("Lost update: expected hits=%d, got %d", correct, state.Hits)
	}
	if state.Misses != incorrect {
		t.Errorf("Lost update: expected misses=%d, got %d", incorrect, state.Misses)
	}
	if len(state.Messages) != correct+incorrect {
		t.Errorf("Expected %d transcript entries, got %d", correct+incorrect, len(state.Messages))
	}
}
