package checkerspresenter

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/park285/checkers-kakao-bot/pkg/checkersdto"
)

// Sender is the outgoing side of the chat transport.
type Sender interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Presenter delivers formatted messages and board images without coupling to the command layer.
type Presenter struct {
	out Sender
}

func NewPresenter(out Sender) *Presenter {
	return &Presenter{out: out}
}

// Text sends message to room; blank messages are dropped.
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.out == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.out.SendText(ctx, room, message)
}

// Board sends the message followed by the board image of state.
func (p *Presenter) Board(ctx context.Context, room, message string, state *checkersdto.SessionState) error {
	if p == nil || p.out == nil {
		return nil
	}
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if state != nil && len(state.BoardImage) > 0 {
		encoded := base64.StdEncoding.EncodeToString(state.BoardImage)
		if err := p.out.SendImage(ctx, room, encoded); err != nil {
			return err
		}
	}
	return nil
}

// Broadcast runs Board for every distinct non-empty room and joins the errors.
func (p *Presenter) Broadcast(ctx context.Context, rooms []string, message string, state *checkersdto.SessionState) error {
	var errs []error
	for _, room := range UniqueRooms(rooms...) {
		if err := p.Board(ctx, room, message, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UniqueRooms drops blanks and duplicates, keeping the first-seen order.
func UniqueRooms(rooms ...string) []string {
	seen := make(map[string]struct{}, len(rooms))
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
