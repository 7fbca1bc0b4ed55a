package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"chaosdash/internal/api"
	"chaosdash/internal/banner"
	"chaosdash/internal/cli"
	"chaosdash/internal/config"
	"chaosdash/internal/dashboard"
	"chaosdash/internal/dummy"
	"chaosdash/internal/logging"
	"chaosdash/internal/metrics"
	"chaosdash/internal/telemetry"
	"chaosdash/internal/tui/app"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	cfgFile string
	v       = config.NewViper()

	// watch flags
	startSession bool
	targetURL    string
	users        string
	spawnRate    string

	// dummy flags
	port     int
	interval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "chaosdash",
	Short: "chaosdash - live control panel for chaos load tests",
	Long: `
chaosdash drives a chaos load-testing server: start and stop load sessions,
tune fault injection while they run and watch throughput, failures and
latency update live.

Modes:
1. TUI (default): interactive terminal dashboard
2. watch: headless, one line per telemetry snapshot
3. dummy: local fake of the control API for trying things out`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream telemetry to stdout without the TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a fake chaos tester control server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		return dummy.Start(ctx, dummy.ServerConfig{
			Addr:     fmt.Sprintf(":%d", port),
			Interval: interval,
			Logger:   logger,
		})
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(watchCmd, dummyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chaosdash.yaml)")
	pf.StringP("server", "s", "", "chaos tester base URL (http or https)")
	pf.String("log-file", "", "write logs to this file")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	pf.Duration("reconnect-delay", 0, "delay before reconnecting the telemetry stream")
	pf.Int("window", 0, "number of samples kept per chart")
	pf.Bool("serialize-pushes", true, "keep at most one chaos update in flight")
	pf.Float64("max-push-rate", 0, "cap chaos updates per second (0 = unlimited, needs --serialize-pushes)")

	bind("server", "server.base_url")
	bind("log-file", "log.file")
	bind("log-level", "log.level")
	bind("metrics-addr", "metrics.addr")
	bind("reconnect-delay", "telemetry.reconnect_delay")
	bind("window", "telemetry.window")
	bind("serialize-pushes", "chaos.serialize_pushes")
	bind("max-push-rate", "chaos.max_push_rate")

	watchCmd.Flags().BoolVar(&startSession, "start", false, "start a session before watching and stop it on exit")
	watchCmd.Flags().StringVarP(&targetURL, "url", "u", "", "target URL for --start")
	watchCmd.Flags().StringVarP(&users, "users", "U", "", "users for --start")
	watchCmd.Flags().StringVarP(&spawnRate, "spawn-rate", "r", "", "spawn rate for --start")

	dummyCmd.Flags().IntVarP(&port, "port", "p", 8080, "port to run the dummy server on")
	dummyCmd.Flags().DurationVar(&interval, "interval", time.Second, "synthetic snapshot interval")
}

// bind ties a flag to a config key. Flags only override when set, so
// file and environment values survive an unset flag's zero default.
func bind(flag, key string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	home, _ := os.UserHomeDir()
	if err := config.ReadFile(v, cfgFile, home); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// components is everything a client mode needs, built from config.
type components struct {
	cfg      config.Config
	logger   *zap.Logger
	closeLog func() error
	metrics  *metrics.Metrics
	state    *dashboard.State
	executor *dashboard.Executor
	channel  *telemetry.Channel
}

func build(vp *viper.Viper, logSink io.Writer) (*components, error) {
	cfg, err := config.Load(vp)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.New(cfg.Log, logSink)
	if err != nil {
		return nil, err
	}

	wsURL, err := cfg.TelemetryURL()
	if err != nil {
		closeLog()
		return nil, err
	}
	client, err := api.NewClient(api.Options{
		BaseURL: cfg.Server.BaseURL,
		Paths:   cfg.APIPaths(),
		Timeout: cfg.Server.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		closeLog()
		return nil, err
	}

	m := metrics.New()
	return &components{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		metrics:  m,
		state: dashboard.New(dashboard.Options{
			WindowSize:      cfg.Telemetry.Window,
			InitialChaos:    &cfg.Chaos.Initial,
			SerializePushes: cfg.Chaos.SerializePushes,
			Defaults:        cfg.SessionDefaults(),
			Logger:          logger,
			Metrics:         m,
		}),
		executor: &dashboard.Executor{
			Backend: client,
			Limiter: dashboard.NewLimiter(cfg.Chaos.MaxPushRate),
			Timeout: cfg.Server.RequestTimeout,
		},
		channel: telemetry.NewChannel(telemetry.Options{
			URL:            wsURL,
			ReconnectDelay: cfg.Telemetry.ReconnectDelay,
			Logger:         logger,
			Metrics:        m,
		}),
	}, nil
}

// serveMetrics exposes the registry when an address is configured.
func (c *components) serveMetrics(ctx context.Context) {
	if c.cfg.Metrics.Addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.metrics.Handler())
	srv := &http.Server{Addr: c.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	c.logger.Info("serving metrics", zap.String("addr", c.cfg.Metrics.Addr))
}

// --- Runners ---

func runTUI(ctx context.Context) error {
	c, err := build(v, nil)
	if err != nil {
		return err
	}
	defer c.closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.serveMetrics(ctx)
	go c.channel.Run(ctx)

	m := app.NewModel(app.Options{
		State:    c.state,
		Executor: c.executor,
		Events:   c.channel.Events(),
		Defaults: c.cfg.SessionDefaults(),
		Ctx:      ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running chaosdash: %w", err)
	}
	return nil
}

func runWatch(ctx context.Context, out, logSink io.Writer) error {
	c, err := build(v, logSink)
	if err != nil {
		return err
	}
	defer c.closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.serveMetrics(ctx)
	go c.channel.Run(ctx)

	opts := cli.Options{
		State:       c.state,
		Executor:    c.executor,
		Events:      c.channel.Events(),
		Out:         out,
		Logger:      c.logger,
		StopTimeout: c.cfg.Server.RequestTimeout,
	}
	if startSession {
		opts.Start = &cli.StartArgs{TargetURL: targetURL, Users: users, SpawnRate: spawnRate}
	}
	return cli.Watch(ctx, opts)
}
