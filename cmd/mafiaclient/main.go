package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mkarlsen/mafia-night/internal/conn"
	"github.com/mkarlsen/mafia-night/internal/httpapi"
	"github.com/mkarlsen/mafia-night/internal/narration"
	"github.com/mkarlsen/mafia-night/internal/session"
)

type config struct {
	ServerURL string `env:"MAFIA_SERVER_URL" envDefault:"http://localhost:5001"`
	SocketURL string `env:"MAFIA_SOCKET_URL" envDefault:"ws://localhost:5001/ws"`
}

func main() {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	host := flag.Bool("host", false, "create a new game and host it")
	name := flag.String("name", "", "display name")
	gameID := flag.String("game", "", "game code to join")
	theme := flag.String("theme", "", "optional story theme (host only)")
	flag.Parse()

	if *name == "" {
		log.Fatal("a display name is required (-name)")
	}
	if !*host && *gameID == "" {
		log.Fatal("a game code is required to join (-game)")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := httpapi.NewClient(cfg.ServerURL)

	var gid, pid string
	if *host {
		res, err := api.Create(ctx, *name, *theme)
		if err != nil {
			logger.Fatal("create failed", zap.Error(err))
		}
		gid, pid = res.GameID, res.HostID
		fmt.Printf("created game %s\n", gid)
	} else {
		pid, err = api.Join(ctx, *gameID, *name)
		if err != nil {
			logger.Fatal("join failed", zap.Error(err))
		}
		gid = *gameID
	}

	c, err := conn.Dial(ctx, cfg.SocketURL, gid, pid, logger)
	if err != nil {
		logger.Fatal("dial failed", zap.Error(err))
	}
	defer c.Close()

	views := make(chan session.View, 16)
	notices := make(chan session.Notice, 16)
	narrOut := make(chan narration.Snapshot, 64)

	s := session.New(ctx, gid, pid, *host, session.Deps{
		Link:         c,
		Views:        views,
		Notices:      notices,
		NarrationOut: narrOut,
		Log:          logger,
	})
	for _, ev := range session.Events() {
		ev := ev
		c.On(ev, func(data json.RawMessage) {
			s.Inbox() <- session.FromServer{Event: ev, Data: data}
		})
	}
	c.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-notices:
				fmt.Printf("[%s] %s\n", n.Kind, n.Text)
				if n.Kind == session.NoticeEnded || n.Kind == session.NoticeDemoted {
					s.Inbox() <- session.Shutdown{}
					stop()
				}
			case snap := <-narrOut:
				if snap.Completed {
					fmt.Println(snap.Buffer)
				}
			case v := <-views:
				logger.Debug("view",
					zap.String("phase", string(v.Phase)),
					zap.Int("players", len(v.Players)))
			}
		}
	}()

	if err := c.Wait(); err != nil {
		logger.Warn("connection closed", zap.Error(err))
	}
	s.Inbox() <- session.Shutdown{}
}
