package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/park285/checkers-kakao-bot/internal/snapshotstore"
)

func runScript(t *testing.T, store snapshotstore.Store, script string) string {
	t.Helper()
	var out bytes.Buffer
	loop := &commandLoop{reg: snapshotstore.NewRegistry(store), out: &out}
	if err := loop.run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestCommandLoopPlaysAndPersists(t *testing.T) {
	store := snapshotstore.NewMemoryStore()
	out := runScript(t, store, strings.Join([]string{
		"start g1",
		"play a3 b4",
		"play g1 b6 a5",
		"moves",
		"grid",
		"exit",
		"start g2",
	}, "\n"))

	for _, want := range []string{"started g1", "a3-b4", "b6-a5", "turn: white  moves: 2  state: IN_PROGRESS", "Exiting game."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "started g2") {
		t.Fatal("commands after exit must not run")
	}
	if tail := out[strings.Index(out, "Exiting game.")+len("Exiting game."):]; strings.TrimSpace(tail) != "" {
		t.Fatalf("output after exit: %q", tail)
	}

	snap, err := store.Load(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.MoveCount != 2 || snap.Turn != "white" {
		t.Fatalf("stored snapshot = %+v", snap)
	}

	out = runScript(t, store, "start g1\n")
	if !strings.Contains(out, "loaded g1") || !strings.Contains(out, "moves: 2") {
		t.Fatalf("reload output:\n%s", out)
	}
}

func TestCommandLoopErrors(t *testing.T) {
	out := runScript(t, snapshotstore.NewMemoryStore(), strings.Join([]string{
		"grid",
		"start",
		"bogus",
		"start g1",
		"play a3 a4",
		"play z9 a1",
		"resign purple",
		"resign white",
		"play b6 a5",
	}, "\n"))
	for _, want := range []string{
		"error: no active game",
		"error: usage: start",
		"Unknown command",
		"illegal destination",
		"invalid square",
		`unknown side "purple"`,
		"state: BLACK_WIN",
		"game is over",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCommandLoopJoinAssignsSides(t *testing.T) {
	out := runScript(t, snapshotstore.NewMemoryStore(), "start g1\njoin\njoin g1\njoin\ngames\n")
	if !strings.Contains(out, "playing white in g1") || !strings.Contains(out, "playing black in g1") {
		t.Fatalf("join output:\n%s", out)
	}
	if !strings.Contains(out, "both sides are already assigned") {
		t.Fatalf("third join should fail:\n%s", out)
	}
}
