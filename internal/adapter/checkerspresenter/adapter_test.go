package checkerspresenter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/domain"
	"github.com/park285/checkers-kakao-bot/internal/pvp"
	"github.com/park285/checkers-kakao-bot/internal/pvpchan"
	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
	"github.com/park285/checkers-kakao-bot/pkg/checkersdto"
)

func TestToDomainErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("parse: %w", checkers.ErrInvalidSquare), CodeInvalidSquare},
		{checkers.ErrCaptureMandatory, CodeCaptureMandatory},
		{checkers.ErrMustContinueChain, CodeMustContinueChain},
		{pvpcheckers.ErrNotYourTurn, CodeNotYourTurn},
		{pvpcheckers.ErrNoActiveGame, CodeNoActiveGame},
		{pvp.ErrAlreadyPending, CodeChallengePending},
		{pvp.ErrNoPendingForUser, CodeNoChallenge},
		{pvpchan.ErrFull, CodeLobbyFull},
		{fmt.Errorf("join: %w", pvpchan.ErrChannelGone), CodeLobbyGone},
		{pvpchan.ErrCreatorHasLobby, CodeCreatorHasLobby},
		{errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		if de == nil || de.Code != tc.code {
			t.Fatalf("ToDomainError(%v) = %+v, want %s", tc.err, de, tc.code)
		}
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil error should map to nil")
	}
}

func TestToDomainErrorRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("move: %w", pvpcheckers.ErrConcurrentUpdate)) {
		t.Fatal("concurrent update should be retryable")
	}
	if IsRetryable(checkers.ErrWrongTurn) {
		t.Fatal("wrong turn should not be retryable")
	}
	de := ToDomainError(checkersdto.DomainError{Code: CodeGameOver, Message: "over"})
	if de.Code != CodeGameOver {
		t.Fatalf("existing DomainError code = %s", de.Code)
	}
}

func TestToGameRecordsViewerPerspective(t *testing.T) {
	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	games := []*domain.CheckersGame{
		{GameID: "g1", WhiteID: "u1", WhiteName: "Alice", BlackID: "u2", BlackName: "Bob", Result: "white", ResultMethod: "capture", Moves: []string{"a3-b4", "b6-a5"}, EndedAt: ended},
		nil,
		{GameID: "g2", WhiteID: "u2", WhiteName: "Bob", BlackID: "u1", BlackName: "Alice", Result: "white", ResultMethod: "resignation"},
	}
	recs := ToGameRecords(games, "u1")
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0].ViewerResult != "win" || recs[0].Opponent != "Bob" || recs[0].Moves != 2 {
		t.Fatalf("first record = %+v", recs[0])
	}
	if recs[1].ViewerResult != "loss" || recs[1].Opponent != "Bob" {
		t.Fatalf("second record = %+v", recs[1])
	}
}

func TestToPlayerStatsAndLobbyInfos(t *testing.T) {
	if s := ToPlayerStats(nil); s != (checkersdto.PlayerStats{}) {
		t.Fatalf("nil stats = %+v", s)
	}
	s := ToPlayerStats(&domain.PlayerRecord{Games: 3, Wins: 2, Losses: 1})
	if s.Games != 3 || s.Wins != 2 || s.Losses != 1 {
		t.Fatalf("stats = %+v", s)
	}
	infos := ToLobbyInfos([]*pvpchan.ChannelMeta{{ID: "CH-ABC123", CreatorName: "Alice", CreatorSide: pvpchan.SideBlack}, nil})
	if len(infos) != 1 || infos[0].Side != "black" || infos[0].Code != "CH-ABC123" {
		t.Fatalf("infos = %+v", infos)
	}
}
