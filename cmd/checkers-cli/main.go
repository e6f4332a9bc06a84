package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/checkersbuilder"
	appcfg "github.com/park285/checkers-kakao-bot/internal/config"
	"github.com/park285/checkers-kakao-bot/internal/obslog"
	svccheckers "github.com/park285/checkers-kakao-bot/internal/service/checkers"
	"github.com/park285/checkers-kakao-bot/internal/snapshotstore"
)

func main() {
	cfg, err := appcfg.LoadCLI()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// the loop owns stdout; log to file unless console output is asked for
	settings := obslog.SettingsFromEnv()
	if os.Getenv("LOG_TO_CONSOLE") == "" {
		settings.Console = false
	}
	if logger, lerr := obslog.Build(settings); lerr == nil {
		obslog.Set(logger)
	}
	defer obslog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := checkersbuilder.NewSnapshotStore(ctx, cfg)
	if err != nil {
		log.Fatalf("snapshot store: %v", err)
	}
	defer func() { _ = closeStore() }()

	var opts []checkers.Option
	if cfg.ChainCaptures {
		opts = append(opts, checkers.WithChainCaptures())
	}
	obslog.L().Info("checkers_cli_start", zap.String("store", cfg.Store), zap.Bool("chain_captures", cfg.ChainCaptures))

	loop := &commandLoop{reg: snapshotstore.NewRegistry(store, opts...), out: os.Stdout}
	if err := loop.run(ctx, os.Stdin); err != nil {
		log.Fatalf("cli: %v", err)
	}
}

var errExit = errors.New("exit")

// commandLoop reads one command per line. Commands without an explicit game id act on the
// most recently started game.
type commandLoop struct {
	reg     *snapshotstore.Registry
	out     io.Writer
	current string
}

func (l *commandLoop) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	l.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := l.exec(ctx, sc.Text())
		if errors.Is(err, errExit) {
			fmt.Fprintln(l.out, "Exiting game.")
			return nil
		}
		if err != nil {
			fmt.Fprintf(l.out, "error: %v\n", err)
		}
		l.prompt()
	}
	return sc.Err()
}

func (l *commandLoop) prompt() { fmt.Fprint(l.out, "> ") }

func (l *commandLoop) exec(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	args := parts[1:]
	switch strings.ToLower(parts[0]) {
	case "start":
		if len(args) < 1 {
			return errors.New("usage: start <game-id>")
		}
		snap, created, err := l.reg.Start(ctx, args[0])
		if err != nil {
			return err
		}
		l.current = snap.GameID
		if created {
			fmt.Fprintf(l.out, "started %s\n", snap.GameID)
		} else {
			fmt.Fprintf(l.out, "loaded %s\n", snap.GameID)
		}
		l.printSnapshot(snap)
	case "join":
		id, err := l.gameID(args, 0)
		if err != nil {
			return err
		}
		side, err := l.reg.Join(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(l.out, "playing %s in %s\n", side, id)
	case "play":
		var id, from, to string
		switch len(args) {
		case 2:
			from, to = args[0], args[1]
		case 3:
			id, from, to = args[0], args[1], args[2]
		default:
			return errors.New("usage: play [game-id] <from> <to>")
		}
		id, err := l.gameID([]string{id}, 0)
		if err != nil {
			return err
		}
		res, err := l.reg.Play(ctx, id, from, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(l.out, "%s\n", res.Move)
		if res.ChainPending {
			fmt.Fprintf(l.out, "continue the jump from %s\n", res.Move.To)
		}
		if snap, ok := l.reg.Get(id); ok {
			l.printSnapshot(snap)
		}
	case "grid":
		id, err := l.gameID(args, 0)
		if err != nil {
			return err
		}
		snap, ok := l.reg.Get(id)
		if !ok {
			return fmt.Errorf("no game with id %s", id)
		}
		l.printSnapshot(snap)
	case "refresh":
		id, err := l.gameID(args, 0)
		if err != nil {
			return err
		}
		snap, err := l.reg.Refresh(ctx, id)
		if err != nil {
			return err
		}
		l.printSnapshot(snap)
	case "moves":
		id, err := l.gameID(args, 0)
		if err != nil {
			return err
		}
		moves, err := l.reg.LegalMoves(id)
		if err != nil {
			return err
		}
		list := make([]string, 0, len(moves))
		for _, mv := range moves {
			list = append(list, mv.String())
		}
		fmt.Fprintln(l.out, strings.Join(list, " "))
	case "resign":
		if len(args) < 1 {
			return errors.New("usage: resign <white|black> [game-id]")
		}
		side, ok := checkers.ParseSide(args[0])
		if !ok {
			return fmt.Errorf("unknown side %q", args[0])
		}
		id, err := l.gameID(args, 1)
		if err != nil {
			return err
		}
		snap, err := l.reg.Resign(ctx, id, side)
		if err != nil {
			return err
		}
		l.printSnapshot(snap)
	case "games":
		fmt.Fprintln(l.out, strings.Join(l.reg.Games(), " "))
	case "exit", "quit":
		return errExit
	default:
		fmt.Fprintln(l.out, "Unknown command")
	}
	return nil
}

// gameID returns args[i] when present, otherwise the current game.
func (l *commandLoop) gameID(args []string, i int) (string, error) {
	if i < len(args) && strings.TrimSpace(args[i]) != "" {
		return args[i], nil
	}
	if l.current == "" {
		return "", errors.New("no active game")
	}
	return l.current, nil
}

func (l *commandLoop) printSnapshot(snap checkers.Snapshot) {
	fmt.Fprintln(l.out, svccheckers.RenderSnapshotRows(snap.Board))
	fmt.Fprintf(l.out, "turn: %s  moves: %d  state: %s\n", snap.Turn, snap.MoveCount, snap.GameState)
}
