package irisfast

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrEgressUnavailable = errors.New("egress not available")

// Egress abstracts message/image sending over HTTP or WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

type transportMode string

const (
	transportHTTP transportMode = "http"
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// sender delivers one reply of kind (text or image).
type sender interface {
	send(ctx context.Context, kind, room, data string) error
}

// egress turns the two Egress methods into reply kinds.
type egress struct{ via sender }

func (e egress) SendText(ctx context.Context, room, message string) error {
	return e.via.send(ctx, replyText, room, message)
}

func (e egress) SendImage(ctx context.Context, room, imageBase64 string) error {
	return e.via.send(ctx, replyImage, room, imageBase64)
}

// NewEgress creates an Egress based on mode (http is the default). auto prefers WS while it
// is connected and falls back to HTTP once per reply. dryrun only logs WS frames.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	viaWS := &wsSender{ws: ws, dryrun: dryrun, logger: logger}
	switch transportMode(mode) {
	case transportWS:
		return egress{via: viaWS}
	case transportAuto:
		return egress{via: &autoSender{ws: viaWS, http: httpSender{c: c}, logger: logger}}
	default:
		return egress{via: httpSender{c: c}}
	}
}

type httpSender struct{ c *Client }

func (h httpSender) send(ctx context.Context, kind, room, data string) error {
	if h.c == nil {
		return ErrEgressUnavailable
	}
	return h.c.reply(ctx, kind, room, data)
}

// wsSender writes ReplyRequest frames over WebSocket.
type wsSender struct {
	ws     *WebSocket
	dryrun bool
	logger *zap.Logger
}

func (w *wsSender) send(ctx context.Context, kind, room, data string) error {
	if w.ws == nil {
		return ErrEgressUnavailable
	}
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun", zap.String("type", kind), zap.String("room", room), zap.Int("bytes", len(data)))
		return nil
	}
	return w.ws.WriteJSON(ctx, &ReplyRequest{Type: kind, Room: room, Data: data})
}

func (w *wsSender) ready() bool {
	return w.ws != nil && (w.dryrun || w.ws.Connected())
}

type autoSender struct {
	ws     *wsSender
	http   httpSender
	logger *zap.Logger
}

func (a *autoSender) send(ctx context.Context, kind, room, data string) error {
	if a.ws.ready() {
		err := a.ws.send(ctx, kind, room, data)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", kind), zap.String("room", room), zap.Error(err))
	}
	return a.http.send(ctx, kind, room, data)
}
