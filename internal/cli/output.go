package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case RoomList:
		o.printRoomList(v)
	case RoomState:
		o.printRoomState(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type (matches API)
type HealthResult struct {
	Status string `json:"status"`
}

// RoomPlayer response type
type RoomPlayer struct {
	Slot     int       `json:"slot"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen"`
}

// RoomSummary response type
type RoomSummary struct {
	RoomID      string       `json:"room_id"`
	State       string       `json:"state"`
	CurrentTurn int          `json:"current_turn"`
	CreatedAt   time.Time    `json:"created_at"`
	SecretsSet  int          `json:"secrets_set"`
	GuessCount  int          `json:"guess_count"`
	Players     []RoomPlayer `json:"players"`
}

// RoomList response type
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// HistoryEntry response type
type HistoryEntry struct {
	Guess   string `json:"guess"`
	Outcome string `json:"outcome"`
}

// Snapshot response type
type Snapshot struct {
	Started      bool                      `json:"started"`
	CurrentTurn  int                       `json:"current_turn"`
	Finished     map[string]bool           `json:"finished"`
	History      map[string][]HistoryEntry `json:"history"`
	Readiness    struct {
		P1Set bool `json:"p1_set"`
		P2Set bool `json:"p2_set"`
	} `json:"readiness"`
	Names        map[string]string `json:"names"`
	TimerStartMs int64             `json:"timer_start_ms"`
}

// RoomState response type
type RoomState struct {
	RoomID string   `json:"room_id"`
	State  Snapshot `json:"state"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No rooms")
		return
	}

	fmt.Printf("Rooms (%d):\n", len(l.Rooms))
	for _, r := range l.Rooms {
		fmt.Printf("  %s  state=%s turn=%d secrets=%d guesses=%d created=%s\n",
			r.RoomID, r.State, r.CurrentTurn, r.SecretsSet, r.GuessCount,
			r.CreatedAt.Format(time.RFC3339))
		for _, p := range r.Players {
			fmt.Printf("    player %d: %s (last seen %s)\n",
				p.Slot, p.Name, p.LastSeen.Format(time.RFC3339))
		}
	}
}

func (o *Output) printRoomState(s RoomState) {
	fmt.Printf("Room: %s\n", s.RoomID)
	state := "lobby"
	if s.State.Started {
		state = "playing"
	}
	fmt.Printf("State: %s\n", state)
	if s.State.Started {
		fmt.Printf("Turn: player %d\n", s.State.CurrentTurn)
	}
	fmt.Printf("Secrets set: p1=%t p2=%t\n", s.State.Readiness.P1Set, s.State.Readiness.P2Set)

	slots := make([]string, 0, len(s.State.Names))
	for slot := range s.State.Names {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		fmt.Printf("Player %s: %s\n", slot, s.State.Names[slot])
	}

	for _, slot := range []string{"1", "2"} {
		history := s.State.History[slot]
		if len(history) == 0 {
			continue
		}
		fmt.Printf("History (player %s):\n", slot)
		for i, h := range history {
			fmt.Printf("  %d. %s -> %s\n", i+1, h.Guess, h.Outcome)
		}
	}
}
