package checkers

import "fmt"

// Snapshot is the persisted shape of a session. Board rows are symbol lists, row 0 first,
// with "-" for an empty square.
type Snapshot struct {
	GameID        string     `json:"game_id" yaml:"game_id"`
	Board         [][]string `json:"board" yaml:"board"`
	Turn          string     `json:"turn" yaml:"turn"`
	WhiteAssigned bool       `json:"white_assigned" yaml:"white_assigned"`
	BlackAssigned bool       `json:"black_assigned" yaml:"black_assigned"`
	MoveCount     int        `json:"move_count" yaml:"move_count"`
	GameState     string     `json:"game_state" yaml:"game_state"`
	Moves         []string   `json:"moves,omitempty" yaml:"moves,omitempty"`
	Chain         string     `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// Snapshot exports the full session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		GameID:        s.id,
		Board:         s.board.Rows(),
		Turn:          s.turn.String(),
		WhiteAssigned: s.assigned[White],
		BlackAssigned: s.assigned[Black],
		MoveCount:     s.moveCount,
		GameState:     s.state.String(),
	}
	if len(s.history) > 0 {
		snap.Moves = make([]string, len(s.history))
		for i, mv := range s.history {
			snap.Moves[i] = mv.String()
		}
	}
	if s.chainActive {
		snap.Chain = s.chainFrom.String()
	}
	return snap
}

// FromSnapshot rebuilds a session. Options are applied as for NewSession; a pending chain
// in the snapshot is kept only when chain captures are enabled.
func FromSnapshot(snap Snapshot, opts ...Option) (*Session, error) {
	s := &Session{id: snap.GameID}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Restore(snap); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore replaces the session state with snap. The session is untouched on error.
func (s *Session) Restore(snap Snapshot) error {
	var board Board
	if len(snap.Board) != BoardDim {
		return fmt.Errorf("%w: board has %d rows", ErrInvalidSnapshot, len(snap.Board))
	}
	for r, row := range snap.Board {
		if len(row) != BoardDim {
			return fmt.Errorf("%w: row %d has %d columns", ErrInvalidSnapshot, r, len(row))
		}
		for c, sym := range row {
			p, ok := PieceFromSymbol(sym)
			if !ok {
				return fmt.Errorf("%w: unknown symbol %q at row %d col %d", ErrInvalidSnapshot, sym, r, c)
			}
			sq := Square{Row: r, Col: c}
			if p != NoPiece && !sq.Dark() {
				return fmt.Errorf("%w: piece on light square %s", ErrInvalidSnapshot, sq)
			}
			board.Place(sq, p)
		}
	}
	turn, ok := ParseSide(snap.Turn)
	if !ok {
		return fmt.Errorf("%w: turn %q", ErrInvalidSnapshot, snap.Turn)
	}
	state, ok := ParseGameState(snap.GameState)
	if !ok {
		return fmt.Errorf("%w: game state %q", ErrInvalidSnapshot, snap.GameState)
	}
	if snap.MoveCount < 0 {
		return fmt.Errorf("%w: negative move count", ErrInvalidSnapshot)
	}
	history := make([]Move, 0, len(snap.Moves))
	for _, raw := range snap.Moves {
		mv, err := ParseMove(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		history = append(history, mv)
	}
	var chainFrom Square
	chainActive := false
	if snap.Chain != "" && s.chainCaptures && state == InProgress {
		sq, err := ParseSquare(snap.Chain)
		if err != nil {
			return fmt.Errorf("%w: chain %v", ErrInvalidSnapshot, err)
		}
		if p, ok := board.PieceAt(sq); !ok || p.Side() != turn {
			return fmt.Errorf("%w: chain square %s does not hold a %s piece", ErrInvalidSnapshot, sq, turn)
		}
		chainFrom, chainActive = sq, true
	}

	s.id = snap.GameID
	s.board = board
	s.turn = turn
	s.state = state
	s.moveCount = snap.MoveCount
	s.assigned = [2]bool{White: snap.WhiteAssigned, Black: snap.BlackAssigned}
	s.history = history
	s.chainFrom, s.chainActive = chainFrom, chainActive
	return nil
}
