package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/httpx"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/common/logger"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/config"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/connections/database"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/connections/rabbitmq"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/notify"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/queue"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/queue/handler"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/sequencer"
	"github.com/SamuelRomaoF/lanchonete-oficial/internal/store"
)

func main() {
	mode := flag.String("mode", "server", "server | notify-subscriber")
	port := flag.Int("port", 0, "http port (overrides config)")
	cfgPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		var err error
		if path, err = config.FindConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "no config found: pass --config or add config.yaml")
			os.Exit(2)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	switch *mode {
	case "server":
		lg.Info("service_started", map[string]any{"service": "queue-server", "port": cfg.HTTP.Port, "storage": cfg.Storage.Driver})
		if err := runServer(ctx, cfg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "notify-subscriber":
		lg.Info("service_started", map[string]any{"service": "notify-subscriber"})
		if err := runSubscriber(ctx, cfg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode must be: server | notify-subscriber")
		os.Exit(2)
	}
}

func runServer(ctx context.Context, cfg config.Config) error {
	lg := logger.New("queue-server")

	var st store.Store
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Storage.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		st = pg
	default:
		st = store.NewFileStore(cfg.Storage.File.Path)
	}

	loc := time.Local
	if cfg.Queue.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Queue.Timezone); err != nil {
			return fmt.Errorf("load timezone %q: %w", cfg.Queue.Timezone, err)
		}
	}

	channels, closeChannels, err := buildChannels(cfg)
	if err != nil {
		// notification channels are best-effort by design; the queue
		// still takes orders when the broker is unreachable at boot
		lg.Error("channel_setup_degraded", err, nil)
	}
	defer closeChannels()

	dispatcher := notify.NewDispatcher(channels, time.Duration(cfg.Notifications.DispatchTimeoutSeconds)*time.Second)
	svc, err := queue.NewService(ctx, st, sequencer.New(loc), dispatcher, queue.CreatedAtPolicy(cfg.Queue.MissingCreatedAt))
	if err != nil {
		return err
	}

	srv := httpx.New(":"+strconv.Itoa(cfg.HTTP.Port), handler.Router(handler.NewQueueHandler(svc)))
	return srv.Run(ctx)
}

func buildChannels(cfg config.Config) (notify.Channels, func(), error) {
	var ch notify.Channels
	closeFn := func() {}

	if cfg.Notifications.Email.Enabled {
		e := cfg.Notifications.Email
		ch.Email = notify.NewEmailAdapter(notify.EmailConfig{
			Host: e.Host, Port: e.Port, User: e.User, Password: e.Password, From: e.From, To: e.To,
		})
	}
	if cfg.Notifications.WhatsApp.Enabled {
		w := notify.WhatsAppConfig{
			BaseURL: cfg.Notifications.WhatsApp.BaseURL,
			Token:   cfg.Notifications.WhatsApp.Token, AdminPhone: cfg.Notifications.WhatsApp.AdminPhone,
		}
		ch.AdminWhatsApp = notify.NewAdminWhatsApp(w)
		ch.CustomerWhatsApp = notify.NewCustomerWhatsApp(w)
	}
	if cfg.Rabbit.Enabled {
		client, err := rabbitmq.Dial(rabbitmq.Config{
			Host: cfg.Rabbit.Host, Port: cfg.Rabbit.Port,
			User: cfg.Rabbit.User, Password: cfg.Rabbit.Password, VHost: cfg.Rabbit.VHost,
		})
		if err != nil {
			return ch, closeFn, fmt.Errorf("connect rabbitmq: %w", err)
		}
		if err := client.DeclareTopology(); err != nil {
			client.Close()
			return ch, closeFn, err
		}
		ch.Broadcast = notify.NewAMQPAdapter(client)
		closeFn = client.Close
	}
	return ch, closeFn, nil
}

func runSubscriber(ctx context.Context, cfg config.Config) error {
	if !cfg.Rabbit.Enabled {
		return fmt.Errorf("notify-subscriber requires rabbitmq.enabled in config")
	}
	client, err := rabbitmq.Dial(rabbitmq.Config{
		Host: cfg.Rabbit.Host, Port: cfg.Rabbit.Port,
		User: cfg.Rabbit.User, Password: cfg.Rabbit.Password, VHost: cfg.Rabbit.VHost,
	})
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer client.Close()
	return notify.RunSubscriber(ctx, client)
}
