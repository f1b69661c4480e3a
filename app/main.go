package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/umputun/tube-relay/app/api"
	"github.com/umputun/tube-relay/app/config"
	"github.com/umputun/tube-relay/app/delivery"
	"github.com/umputun/tube-relay/app/extractor"
	"github.com/umputun/tube-relay/app/media"
	"github.com/umputun/tube-relay/app/telegram"
)

type options struct {
	Port          int    `short:"p" long:"port" env:"PORT" default:"5000" description:"http port"`
	Conf          string `short:"f" long:"conf" env:"CONF" description:"config file (yml), defaults used if not set"`
	DownloadDir   string `long:"download-dir" env:"DOWNLOAD_DIR" description:"directory for temporary files, overrides config"`
	AwaitDelivery bool   `long:"await-delivery" env:"AWAIT_DELIVERY" description:"respond to download after delivery, overrides config"`

	Telegram struct {
		Token   string        `long:"token" env:"TOKEN" description:"telegram bot token"`
		Server  string        `long:"server" env:"SERVER" description:"telegram bot api server, overrides config"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" description:"telegram timeout, overrides config"`
	} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

	Extractor struct {
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" description:"timeout for a single extractor call, overrides config"`
	} `group:"extractor" namespace:"extractor" env-namespace:"EXTRACTOR"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("tube-relay %s\n", revision)
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	setupLog(opts.Dbg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	conf, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(conf.System.DownloadDir, 0o750); err != nil {
		return errors.Wrapf(err, "can't make download directory %s", conf.System.DownloadDir)
	}

	bot, err := telegram.NewBot(telegram.Opts{
		Token:     conf.Telegram.Token,
		Server:    conf.Telegram.Server,
		Timeout:   conf.Telegram.Timeout,
		Performer: conf.Delivery.Performer,
		Footer:    conf.Delivery.Footer,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize telegram bot")
	}
	go bot.Run(ctx)

	svc := &delivery.Service{
		Sender:     bot,
		Workers:    conf.Delivery.Workers,
		QueueSize:  conf.Delivery.QueueSize,
		Retries:    conf.Delivery.Retries,
		RetryDelay: conf.Delivery.RetryDelay,
		Timeout:    conf.Delivery.Timeout,
	}
	if err = svc.Start(ctx); err != nil {
		return errors.Wrap(err, "can't start delivery")
	}
	defer svc.Stop()

	server := api.Server{
		Version:       revision,
		Extractor:     makeExtractor(conf),
		Delivery:      svc,
		DefaultLimit:  conf.Search.DefaultLimit,
		MaxLimit:      conf.Search.MaxLimit,
		AwaitDelivery: conf.Delivery.Await,
		CacheTTL:      conf.Search.CacheTTL,
	}
	server.Run(ctx, opts.Port)
	return nil
}

func makeExtractor(conf *config.Conf) *extractor.Extractor {
	return &extractor.Extractor{
		SearchTemplate:   conf.Extractor.SearchTemplate,
		InfoTemplate:     conf.Extractor.InfoTemplate,
		DownloadTemplate: conf.Extractor.DownloadTemplate,
		AudioFormat:      strings.ToLower(conf.Extractor.AudioFormat),
		AudioQuality:     conf.Extractor.AudioQuality,
		WatchURL:         conf.Extractor.WatchURL,
		LinkHosts:        conf.Extractor.LinkHosts,
		Destination:      conf.System.DownloadDir,
		Timeout:          conf.Extractor.Timeout,
		LogWriter:        log.ToWriter(log.Default(), "DEBUG"),
		DurationService:  &media.Meter{},
		TagService:       &media.Tagger{},
	}
}

// loadConfig reads optional config file and applies command line overrides
func loadConfig(opts options) (*config.Conf, error) {
	conf := config.New()
	if opts.Conf != "" {
		c, err := config.Load(opts.Conf)
		if err != nil {
			return nil, errors.Wrapf(err, "can't load config %s", opts.Conf)
		}
		conf = c
	}

	if opts.DownloadDir != "" {
		conf.System.DownloadDir = opts.DownloadDir
	}
	if opts.AwaitDelivery {
		conf.Delivery.Await = true
	}
	if opts.Telegram.Token != "" {
		conf.Telegram.Token = opts.Telegram.Token
	}
	if opts.Telegram.Server != "" {
		conf.Telegram.Server = opts.Telegram.Server
	}
	if opts.Telegram.Timeout > 0 {
		conf.Telegram.Timeout = opts.Telegram.Timeout
	}
	if opts.Extractor.Timeout > 0 {
		conf.Extractor.Timeout = opts.Extractor.Timeout
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return conf, nil
}

func setupLog(dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.CallerFile, log.Msec, log.LevelBraces)
		return
	}
	log.Setup(log.Msec, log.LevelBraces)
}
