package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/bot"
	"github.com/park285/checkers-kakao-bot/internal/checkersbuilder"
	appcfg "github.com/park285/checkers-kakao-bot/internal/config"
	"github.com/park285/checkers-kakao-bot/internal/irisfast"
	"github.com/park285/checkers-kakao-bot/internal/obslog"
)

const commandTimeout = 15 * time.Second

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Printf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := checkersbuilder.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("checkers init error: %v", err)
	}
	defer func() { _ = deps.Close() }()

	if deps.Client != nil {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if icfg, err := deps.Client.GetConfig(cctx); err != nil {
			logger.Warn("iris_config_error", zap.Error(err))
		} else {
			logger.Info("iris_config", zap.String("bot_name", icfg.BotName), zap.Int("port", icfg.Port))
		}
		cancel()
	}

	handler := bot.NewHandler(deps)
	ws := deps.WS
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		// 수신 루프를 막지 않도록 명령마다 고루틴
		go func() {
			hctx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()
			handler.Handle(hctx, msg)
		}()
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		log.Fatalf("ws connect error: %v", err)
	}
	cancel()
	logger.Info("checkers_bot_ready", zap.String("prefix", cfg.BotPrefix))

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = ws.Close(shutdown)
			cancel()
			logger.Info("checkers_bot_stopped")
			return
		case <-sweep.C:
			if n := deps.Challenges.Sweep(); n > 0 {
				logger.Debug("challenge_sweep", zap.Int("removed", n))
			}
		}
	}
}
