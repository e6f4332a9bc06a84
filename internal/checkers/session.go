package checkers

import (
	"fmt"
	"strings"
)

// GameState is the outcome of a session. Once it leaves InProgress it never returns.
type GameState uint8

const (
	InProgress GameState = iota
	WhiteWins
	BlackWins
)

func (g GameState) String() string {
	switch g {
	case WhiteWins:
		return "WHITE_WIN"
	case BlackWins:
		return "BLACK_WIN"
	default:
		return "IN_PROGRESS"
	}
}

// ParseGameState reads the String form.
func ParseGameState(raw string) (GameState, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "IN_PROGRESS", "":
		return InProgress, true
	case "WHITE_WIN":
		return WhiteWins, true
	case "BLACK_WIN":
		return BlackWins, true
	default:
		return InProgress, false
	}
}

func winFor(side Side) GameState {
	if side == White {
		return WhiteWins
	}
	return BlackWins
}

// Winner returns the winning side for a finished state.
func (g GameState) Winner() (Side, bool) {
	switch g {
	case WhiteWins:
		return White, true
	case BlackWins:
		return Black, true
	default:
		return White, false
	}
}

// MoveResult describes an accepted move and the session state right after it.
type MoveResult struct {
	Move      Move
	Turn      Side
	State     GameState
	MoveCount int
	// ChainPending is set when the same piece must jump again before the turn passes.
	ChainPending bool
}

func (r MoveResult) Finished() bool { return r.State != InProgress }

type Option func(*Session)

// WithChainCaptures lets a piece that just captured keep jumping in the same turn.
// Off by default: every capture ends the turn.
func WithChainCaptures() Option {
	return func(s *Session) { s.chainCaptures = true }
}

// Session is one game. It is not safe for concurrent use; callers serialize access.
type Session struct {
	id        string
	board     Board
	turn      Side
	state     GameState
	moveCount int
	assigned  [2]bool
	history   []Move

	chainCaptures bool
	chainActive   bool
	chainFrom     Square
}

// NewSession starts a game in the standard layout with White to move.
func NewSession(id string, opts ...Option) *Session {
	s := &Session{id: id, turn: White, state: InProgress}
	s.board.InitializeStandardLayout()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }
func (s *Session) Turn() Side { return s.turn }
func (s *Session) State() GameState { return s.state }
func (s *Session) MoveCount() int { return s.moveCount }
func (s *Session) ChainCaptures() bool { return s.chainCaptures }
func (s *Session) Assigned(side Side) bool { return s.assigned[side] }

// Board returns a copy of the current grid.
func (s *Session) Board() Board { return s.board }

// History returns the applied moves, oldest first.
func (s *Session) History() []Move { return append([]Move(nil), s.history...) }

// PendingChain returns the square of the piece that must keep jumping, if any.
func (s *Session) PendingChain() (Square, bool) { return s.chainFrom, s.chainActive }

// AssignPlayer claims side for a seat. It returns false if the side was already taken.
func (s *Session) AssignPlayer(side Side) bool {
	if s.assigned[side] {
		return false
	}
	s.assigned[side] = true
	return true
}

// ReleasePlayer frees a previously claimed side.
func (s *Session) ReleasePlayer(side Side) { s.assigned[side] = false }

// LegalDestinations returns the destinations of the piece on sq for the side to move,
// with the mandatory-capture rule applied. Empty for opponent pieces or finished games.
func (s *Session) LegalDestinations(sq Square) []Square {
	if s.state != InProgress {
		return nil
	}
	p, ok := s.board.PieceAt(sq)
	if !ok || p.Side() != s.turn {
		return nil
	}
	if s.chainActive && sq != s.chainFrom {
		return nil
	}
	dests := LegalDestinations(&s.board, sq, p)
	if !s.chainActive && !CaptureAvailable(&s.board, s.turn) {
		return dests
	}
	out := dests[:0:0]
	for _, to := range dests {
		if isCapture(&s.board, sq, to, p) {
			out = append(out, to)
		}
	}
	return out
}

// LegalMoves lists every move the side to move may play.
func (s *Session) LegalMoves() []Move {
	if s.state != InProgress {
		return nil
	}
	if s.chainActive {
		var out []Move
		for _, to := range s.LegalDestinations(s.chainFrom) {
			out = append(out, Move{From: s.chainFrom, To: to, Capture: true, Captured: midpoint(s.chainFrom, to)})
		}
		return out
	}
	return LegalMoves(&s.board, s.turn)
}

// MakeMove validates and applies from->to. On error nothing changes.
func (s *Session) MakeMove(from, to Square) (MoveResult, error) {
	if s.state != InProgress {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrGameOver, s.state)
	}
	if !from.Valid() || !to.Valid() {
		return MoveResult{}, fmt.Errorf("%w: %s -> %s", ErrInvalidSquare, from, to)
	}
	piece, ok := s.board.PieceAt(from)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrEmptySource, from)
	}
	if piece.Side() != s.turn {
		return MoveResult{}, fmt.Errorf("%w: %s to move", ErrWrongTurn, s.turn)
	}
	if s.chainActive && from != s.chainFrom {
		return MoveResult{}, fmt.Errorf("%w: from %s", ErrMustContinueChain, s.chainFrom)
	}

	capture := isCapture(&s.board, from, to, piece)
	if !capture && (s.chainActive || CaptureAvailable(&s.board, s.turn)) {
		return MoveResult{}, fmt.Errorf("%w: %s -> %s", ErrCaptureMandatory, from, to)
	}
	if !containsSquare(LegalDestinations(&s.board, from, piece), to) {
		return MoveResult{}, fmt.Errorf("%w: %s -> %s", ErrIllegalDestination, from, to)
	}

	mv := Move{From: from, To: to}
	s.board.Place(to, piece)
	s.board.Place(from, NoPiece)
	s.moveCount++
	if capture {
		mv.Capture = true
		mv.Captured = midpoint(from, to)
		s.board.Place(mv.Captured, NoPiece)
		s.moveCount++
	}
	if !piece.IsKing() && to.Row == piece.Side().PromotionRow() {
		s.board.Place(to, piece.Promoted())
		mv.Promoted = true
	}
	s.history = append(s.history, mv)

	s.chainActive = false
	if s.chainCaptures && capture && !mv.Promoted && canCaptureFrom(&s.board, to) {
		s.chainActive = true
		s.chainFrom = to
	} else {
		s.turn = s.turn.Opponent()
	}
	s.updateState()

	return MoveResult{
		Move:         mv,
		Turn:         s.turn,
		State:        s.state,
		MoveCount:    s.moveCount,
		ChainPending: s.chainActive,
	}, nil
}

// Resign ends the game in favour of side's opponent.
func (s *Session) Resign(side Side) error {
	if s.state != InProgress {
		return fmt.Errorf("%w: %s", ErrGameOver, s.state)
	}
	s.state = winFor(side.Opponent())
	s.chainActive = false
	return nil
}

func (s *Session) updateState() {
	switch {
	case s.board.Count(White) == 0:
		s.state = BlackWins
	case s.board.Count(Black) == 0:
		s.state = WhiteWins
	}
	if s.state != InProgress {
		s.chainActive = false
	}
}

func containsSquare(list []Square, sq Square) bool {
	for _, x := range list {
		if x == sq {
			return true
		}
	}
	return false
}
