package checkersdto

import "time"

// SessionState is the presenter view of one PvP game.
type SessionState struct {
	GameID       string
	WhiteName    string
	BlackName    string
	Turn         string
	TurnName     string
	State        string
	Status       string
	Winner       string
	WinnerName   string
	Outcome      string
	MoveCount    int
	Moves        []string
	PDN          string
	LastMove     string
	ChainPending string
	// MustCapture lists the squares of the side to move whose pieces have a capture.
	MustCapture  []string
	// Blocked is set when the side to move still has pieces but no legal move.
	Blocked      bool
	WhiteCount   int
	BlackCount   int
	BoardImage   []byte
	BoardText    string
}

// Finished reports whether the game reached a terminal state.
func (s *SessionState) Finished() bool {
	return s != nil && s.State != "" && s.State != "IN_PROGRESS"
}

// GameRecord is an archived result.
type GameRecord struct {
	GameID       string
	WhiteName    string
	BlackName    string
	Result       string
	ResultMethod string
	// ViewerResult is "win" or "loss" for the user the record was fetched for.
	ViewerResult string
	Opponent     string
	Moves        int
	PDN          string
	EndedAt      time.Time
	Duration     time.Duration
}

// PlayerStats summarises a user's archived games.
type PlayerStats struct {
	Games  int
	Wins   int
	Losses int
}
