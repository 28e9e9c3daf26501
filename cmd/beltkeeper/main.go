package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hectorgimenez/beltkeeper/cmd/beltkeeper/log"
	"github.com/hectorgimenez/beltkeeper/internal/belt"
	"github.com/hectorgimenez/beltkeeper/internal/bot"
	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/game/hid"
	"github.com/hectorgimenez/beltkeeper/internal/game/ocr"
	"github.com/hectorgimenez/beltkeeper/internal/game/screen"
	"github.com/hectorgimenez/beltkeeper/internal/game/template"
	"github.com/hectorgimenez/beltkeeper/internal/health"
	"github.com/hectorgimenez/beltkeeper/internal/inventory"
	"github.com/hectorgimenez/beltkeeper/internal/journal"
	"github.com/hectorgimenez/beltkeeper/internal/remote/discord"
	"github.com/hectorgimenez/beltkeeper/internal/remote/telegram"
	"github.com/hectorgimenez/beltkeeper/internal/server"
	"github.com/hectorgimenez/beltkeeper/internal/town"
	"golang.org/x/sync/errgroup"
)

func main() {
	configDir := flag.String("config", "config", "folder holding "+config.FileName)
	templateDir := flag.String("template", "config/template", "folder copied into -config on first run")
	once := flag.Bool("once", false, "run a single refresh, print the needs and exit")
	drink := flag.String("drink", "", "drink one potion (rejuv, health or mana) and exit")
	merc := flag.Bool("merc", false, "give the -drink potion to the mercenary")
	encrypt := flag.String("encrypt", "", "print the value encrypted for the config file and exit")
	flag.Parse()

	if *encrypt != "" {
		secret, err := config.EncryptSecret(*encrypt)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(secret)
		return
	}

	cfgPath, err := config.Install(*templateDir, *configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error installing config: %s\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLoggerWithLevel(cfg.LogLevel, cfg.Debug, cfg.LogDir, cfg.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting logger: %s\n", err)
		os.Exit(1)
	}
	defer log.FlushAndClose()

	if err = run(cfg, logger, *once, *drink, *merc); err != nil {
		logger.Error("Beltkeeper stopped", slog.Any("error", err))
		log.FlushAndClose()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, once bool, drink string, merc bool) error {
	if err := config.SetDPIAware(); err != nil {
		logger.Warn("Error setting DPI awareness", slog.Any("error", err))
	}
	if scale := config.DisplayScale(); scale != 1.0 {
		logger.Warn(fmt.Sprintf("Display scale is %.0f%%, belt and inventory positions expect 100%%", scale*100))
	}

	scr, err := screen.New(cfg)
	if err != nil {
		return err
	}
	input := hid.New(logger)
	matcher, err := template.NewMatcher(cfg.Inventory.TemplatesDir, logger)
	if err != nil {
		return err
	}
	defer matcher.Close()

	ledger := consumable.NewLedger(logger)
	classifier := belt.NewClassifier(cfg.Colors)

	if drink != "" {
		potionType, found := consumable.ParsePotionType(drink)
		if !found {
			return fmt.Errorf("-drink %q: %w", drink, consumable.ErrUnknownKind)
		}
		used, err := health.NewBeltManager(cfg, classifier, scr, input, ledger, logger).DrinkPotion(potionType, merc)
		if err != nil {
			return err
		}
		if !used {
			logger.Warn(fmt.Sprintf("No %s found in the belt", potionType))
		}
		return nil
	}

	b := bot.NewBot(
		cfg.Name,
		belt.NewScanner(cfg, classifier, scr, input, ledger, logger),
		inventory.NewResolver(cfg, scr, input, matcher, ocr.NewReader(), ledger, logger),
		town.NewEvaluator(ledger, logger),
		ledger,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		needs, err := b.RefreshNeeds(ctx)
		if err != nil {
			return err
		}
		fmt.Println(event.FormatNeeds(needs))
		return nil
	}

	listener := event.NewListener(logger)
	listener.Register(func(_ context.Context, e event.Event) error {
		if scan, ok := e.(event.ScanCompletedEvent); ok {
			fmt.Println(event.FormatNeeds(scan.Needs))
		}
		return nil
	})

	g, ctx := errgroup.WithContext(ctx)
	triggers := make(chan struct{}, 1)

	var history server.HistoryReader
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		listener.Register(j.Handler())
		history = j
	}

	if cfg.Discord.Enabled {
		token, err := config.Secret(cfg.Discord.Token)
		if err != nil {
			return fmt.Errorf("discord token: %w", err)
		}
		discordBot, err := discord.NewBot(token, cfg.Discord.ChannelID, logger)
		if err != nil {
			return err
		}
		listener.Register(discordBot.Handle)
		g.Go(func() error { return discordBot.Start(ctx) })
	}

	if cfg.Telegram.Enabled {
		token, err := config.Secret(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("telegram token: %w", err)
		}
		telegramBot, err := telegram.NewBot(token, cfg.Telegram.ChatID, logger)
		if err != nil {
			return err
		}
		listener.Register(telegramBot.Handle)
	}

	if cfg.Server.Enabled {
		srv := server.New(b, history, triggers, logger)
		listener.Register(srv.EventHandler())
		g.Go(func() error { return srv.Listen(ctx, cfg.Server.Listen) })
	}

	g.Go(func() error { return listener.Listen(ctx) })
	g.Go(func() error { return listenHotkey(ctx, triggers) })
	g.Go(func() error {
		err := b.Run(ctx, triggers)
		// A fatal refresh error stops everything else too
		stop()
		return err
	})

	logger.Info(fmt.Sprintf("Beltkeeper ready, press %s in game to refresh the consumable needs", hotkeyName))

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
