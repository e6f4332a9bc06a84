package pvpcheckers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
)

func TestToDTOForViewerFlips(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "w", "W", "b", "B", "white")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	g, _, err = m.PlayMove(ctx, "w", "a3", "b4")
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}

	dtoW, err := m.ToDTOForViewer(ctx, g, "w")
	if err != nil || dtoW == nil || len(dtoW.BoardImage) == 0 {
		t.Fatalf("white dto render failed: %v", err)
	}
	dtoB, err := m.ToDTOForViewer(ctx, g, "b")
	if err != nil || dtoB == nil || len(dtoB.BoardImage) == 0 {
		t.Fatalf("black dto render failed: %v", err)
	}
	if bytes.Equal(dtoW.BoardImage, dtoB.BoardImage) {
		t.Fatalf("expected different images for flipped viewpoints")
	}
	if dtoW.Turn != "black" || dtoW.TurnName != "B" || dtoW.MoveCount != 1 || dtoW.LastMove != "a3-b4" {
		t.Fatalf("unexpected dto %+v", dtoW)
	}
	if dtoW.PDN != "1. 21-17" {
		t.Fatalf("pdn = %q", dtoW.PDN)
	}
	if !strings.Contains(dtoW.BoardText, "[w]") || !strings.HasPrefix(dtoB.BoardText, "1") {
		t.Fatalf("text boards:\n%s\n---\n%s", dtoW.BoardText, dtoB.BoardText)
	}
	if dtoW.WhiteCount != 12 || dtoW.BlackCount != 12 || dtoW.Finished() {
		t.Fatalf("counts %d/%d", dtoW.WhiteCount, dtoW.BlackCount)
	}
}

func TestToDTOShowsChainHints(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := riggedGame(t, m, checkers.White, map[string]string{"a3": "w", "b4": "b", "d6": "b", "h8": "b"})
	g.ChainCaptures = true
	if err := m.save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	g, _, err := m.PlayMove(ctx, "w", "a3", "c5")
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	dto, err := m.ToDTO(ctx, g)
	if err != nil {
		t.Fatalf("ToDTO: %v", err)
	}
	if dto.ChainPending != "c5" || dto.Turn != "white" {
		t.Fatalf("unexpected chain state %+v", dto)
	}
}

func TestToDTOFlagsMandatoryCaptureAndBlockedSide(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	g := riggedGame(t, m, checkers.White, map[string]string{"c3": "w", "g3": "w", "d4": "b", "h8": "b"})
	dto, err := m.ToDTO(ctx, g)
	if err != nil {
		t.Fatalf("ToDTO: %v", err)
	}
	if len(dto.MustCapture) != 1 || dto.MustCapture[0] != "c3" || dto.Blocked {
		t.Fatalf("capture hint = %v blocked=%v", dto.MustCapture, dto.Blocked)
	}

	g = riggedGame(t, m, checkers.White, map[string]string{"h8": "w", "a1": "b"})
	dto, err = m.ToDTO(ctx, g)
	if err != nil {
		t.Fatalf("ToDTO: %v", err)
	}
	if !dto.Blocked || len(dto.MustCapture) != 0 {
		t.Fatalf("blocked white not flagged: %+v", dto)
	}
}

func TestHudTurn(t *testing.T) {
	s := checkers.NewSession("h")
	if got := hudTurn(s); got != "White - move 1" {
		t.Fatalf("hudTurn = %q", got)
	}
	_ = s.Resign(checkers.White)
	if got := hudTurn(s); got != "Black wins" {
		t.Fatalf("hudTurn finished = %q", got)
	}
}
