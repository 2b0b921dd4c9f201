// Package daemon wires config, gateway, tracker, notifier, heartbeat and
// metrics into one long-running process.
package daemon

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/subtools/showcasebot/internal/bus"
	"github.com/subtools/showcasebot/internal/config"
	"github.com/subtools/showcasebot/internal/heartbeat"
	"github.com/subtools/showcasebot/internal/metrics"
	"github.com/subtools/showcasebot/internal/notify"
	"github.com/subtools/showcasebot/internal/reddit"
	"github.com/subtools/showcasebot/internal/tracker"
)

const eventBufSize = 64

// Options carry test seams: a fake gateway, a fake telegram bot factory,
// an injected signal channel.
type Options struct {
	Gateway    tracker.Gateway
	BotFactory notify.BotFactory
	SignalChan chan os.Signal
}

type Daemon struct {
	cfg *config.Config
	bus *bus.Bus
	trk *tracker.Tracker
	hb  *heartbeat.Service

	signalChan chan os.Signal
}

func New(cfg *config.Config) (*Daemon, error) {
	return NewWithOptions(cfg, Options{})
}

func NewWithOptions(cfg *config.Config, opts Options) (*Daemon, error) {
	d := &Daemon{cfg: cfg, bus: bus.New(eventBufSize), signalChan: opts.SignalChan}

	gw := opts.Gateway
	if gw == nil {
		gw = reddit.NewClient(reddit.Options{
			UserAgent:   cfg.Reddit.UserAgent,
			AccessToken: cfg.Reddit.AccessToken,
			BaseURL:     cfg.Reddit.BaseURL,
			Debug:       cfg.Debug,
		})
	}
	d.trk = tracker.New(cfg, gw, d.bus)

	if cfg.Telegram.Enabled {
		factory := opts.BotFactory
		var tg *notify.Telegram
		var err error
		if factory == nil {
			tg, err = notify.NewTelegram(cfg.Telegram)
		} else {
			tg, err = notify.NewTelegramWithFactory(cfg.Telegram, factory)
		}
		if err != nil {
			return nil, err
		}
		d.bus.Subscribe(tg.Notify)
	}

	if cfg.Heartbeat.Enabled {
		schedule := cfg.Heartbeat.Schedule
		if schedule == "" {
			schedule = config.DefaultHeartbeatSchedule
		}
		d.hb = heartbeat.New(schedule, d.trk.Stats)
	}

	return d, nil
}

// Run blocks until SIGINT/SIGTERM or a fatal tracker fault. The tracker
// runs on the calling goroutine; everything else is auxiliary.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go d.bus.Dispatch(ctx)

	if d.cfg.MetricsListen != "" {
		go func() {
			log.Printf("[daemon] metrics on %s", d.cfg.MetricsListen)
			if err := metrics.Serve(d.cfg.MetricsListen); err != nil {
				log.Printf("[daemon] metrics listener failed: %v", err)
			}
		}()
	}

	if d.hb != nil {
		if err := d.hb.Start(); err != nil {
			log.Printf("[daemon] heartbeat start warning: %v", err)
		} else {
			defer d.hb.Stop()
		}
	}

	sigCh := d.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("[daemon] received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	err := d.trk.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
