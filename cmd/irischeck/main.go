// Command irischeck probes the Iris endpoints the checkers bot depends on: GET /config, the
// WebSocket feed and, when -room is given, one reply through the configured egress.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/checkers-kakao-bot/internal/checkersbuilder"
	appcfg "github.com/park285/checkers-kakao-bot/internal/config"
	"github.com/park285/checkers-kakao-bot/internal/irisfast"
)

func main() {
	room := flag.String("room", "", "room to send a test reply to")
	text := flag.String("text", "⛀ checkers bot connectivity check", "test reply text")
	observe := flag.Duration("observe", 10*time.Second, "how long to print WebSocket events")
	flag.Parse()

	cfg := &appcfg.AppConfig{
		IrisBaseURL: strings.TrimSpace(os.Getenv("IRIS_BASE_URL")),
		IrisWSURL:   strings.TrimSpace(os.Getenv("IRIS_WS_URL")),
		BotPrefix:   strings.TrimSpace(os.Getenv("BOT_PREFIX")),
		XUserID:     os.Getenv("X_USER_ID"),
		XUserEmail:  os.Getenv("X_USER_EMAIL"),
		XSessionID:  os.Getenv("X_SESSION_ID"),
		EgressMode:  strings.ToLower(strings.TrimSpace(os.Getenv("EGRESS_MODE"))),
	}
	if cfg.IrisBaseURL == "" {
		log.Fatal("IRIS_BASE_URL is required")
	}
	headers := checkersbuilder.Headers(cfg)

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	icfg, err := client.GetConfig(ctx)
	if err != nil {
		log.Printf("/config error: %v", err)
	} else {
		log.Printf("/config ok: bot=%s port=%d polling=%d rate=%d endpoint=%s",
			icfg.BotName, icfg.Port, icfg.PollingSpeed, icfg.MessageRate, icfg.WebserverEndpoint)
	}

	var ws *irisfast.WebSocket
	if cfg.IrisWSURL != "" {
		ws = irisfast.NewWebSocket(cfg.IrisWSURL, 0, time.Second)
		ws.SetHeaderProvider(headers)
		ws.OnStateChange(func(state irisfast.WebSocketState) {
			log.Printf("WS state: %s", state)
		})
		ws.OnMessage(func(msg *irisfast.Message) {
			mark := ""
			if cfg.BotPrefix != "" && strings.HasPrefix(strings.TrimSpace(msg.Msg), cfg.BotPrefix) {
				mark = " [command]"
			}
			fmt.Printf("WS msg room=%s user=%s from=%s text=%q%s\n",
				msg.Room, msg.UserID(), msg.SenderName("?"), msg.Msg, mark)
		})
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := ws.Connect(cctx)
		ccancel()
		if err != nil {
			log.Printf("WS connect error: %v", err)
			ws = nil
		}
	} else {
		log.Println("IRIS_WS_URL not set; skipping WS check")
	}

	if *room != "" {
		egress := irisfast.NewEgress(cfg.EgressMode, false, client, ws, nil)
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := egress.SendText(sctx, *room, *text); err != nil {
			log.Printf("reply error (mode=%s): %v", cfg.EgressMode, err)
		} else {
			log.Printf("reply ok (mode=%s) room=%s", cfg.EgressMode, *room)
		}
		scancel()
	}

	if ws == nil {
		return
	}
	time.Sleep(*observe)
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
}
