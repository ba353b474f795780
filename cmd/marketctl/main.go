package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"marketplace-client/internal/app"
	"marketplace-client/internal/config"
	"marketplace-client/internal/domain"
	"marketplace-client/internal/infrastructure/marketapi"
	"marketplace-client/internal/services"
	"marketplace-client/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

// Exit codes, one per error kind.
const (
	exitOK = iota
	exitFailure
	exitUsage
	exitAuth
	exitRejected
	exitNotFound
	exitTransport
	exitMalformed
)

var errUsage = errors.New("usage")

// A public command runs without a stored session.
type command struct {
	name    string
	args    string
	summary string
	public  bool
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = []command{
	{name: "login", args: "-email E [-password P]", summary: "sign in and store the session token", public: true, run: runLogin},
	{name: "register", args: "-username U -email E [-password P] [-role buyer|seller]", summary: "create an account and sign in", public: true, run: runRegister},
	{name: "logout", summary: "forget the stored session", public: true, run: runLogout},
	{name: "whoami", summary: "show the signed-in user", run: runWhoami},
	{name: "browse", args: "[-category C] [-type direct|auction] [-min N] [-max N] [-search S]", summary: "list active products", public: true, run: runBrowse},
	{name: "show", args: "ID", summary: "show a listing and its bid history", public: true, run: runShow},
	{name: "bid", args: "ID AMOUNT", summary: "place a bid on an auction", run: runBid},
	{name: "buy", args: "ID", summary: "buy a direct listing", run: runBuy},
	{name: "close", args: "ID", summary: "close one of your auctions", run: runClose},
	{name: "create", args: "-title T -description D -category C -type direct|auction ... [-image FILE]...", summary: "create a listing", run: runCreate},
	{name: "dashboard", summary: "show your orders, bids and products", run: runDashboard},
	{name: "users", args: "[-pending]", summary: "list accounts (admin)", run: runUsers},
	{name: "approve", args: "USER_ID", summary: "approve a seller account (admin)", run: runApprove},
	{name: "watch", args: "ID [-for DURATION] [-interactive]", summary: "follow an auction live", public: true, run: runWatch},
	{name: "tail", summary: "print accepted bids published by bidwatch", public: true, run: runTail},
}

type cli struct {
	cfg     *config.Config
	log     logger.Logger
	api     *marketapi.Client
	rdb     *redisClient.Client
	session *services.SessionService
	market  *services.MarketplaceService
	out     io.Writer
	in      io.Reader
	format  string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("marketctl", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to config.yaml")
		format     = fs.String("format", "text", "output format: text or json")
		verbose    = fs.Bool("v", false, "log at debug level to stderr")
	)
	fs.Usage = func() { usage(fs.Output(), fs) }
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "invalid -format %q\n", *format)
		return exitUsage
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitFailure
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "console", Output: "stderr"}
	if *verbose {
		logCfg.Level = "debug"
	}
	log, err := app.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := newCLI(ctx, cfg, log, *format)
	if err != nil {
		return report(err)
	}
	defer c.close()

	if !cmd.public || cmd.name == "watch" {
		if _, err := c.session.Restore(ctx); err != nil && !cmd.public {
			return report(err)
		}
	}

	err = cmd.run(ctx, c, fs.Args()[1:])
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "usage: marketctl %s %s\n", cmd.name, cmd.args)
		return exitUsage
	}
	return report(err)
}

func newCLI(ctx context.Context, cfg *config.Config, log logger.Logger, format string) (*cli, error) {
	api, err := app.NewAPIClient(cfg.API, log)
	if err != nil {
		return nil, err
	}

	// redis is only opened when the session lives there or tail needs it
	var rdb *redisClient.Client
	if strings.EqualFold(cfg.Auth.TokenBackend, config.TokenBackendRedis) {
		if rdb, err = app.OpenRedis(ctx, cfg.Redis); err != nil {
			return nil, err
		}
	}
	store, err := app.NewTokenStore(cfg, rdb)
	if err != nil {
		return nil, err
	}

	session := services.NewSessionService(api, store, log)
	return &cli{
		cfg:     cfg,
		log:     log,
		api:     api,
		rdb:     rdb,
		session: session,
		market:  services.NewMarketplaceService(api, session, log),
		out:     os.Stdout,
		in:      os.Stdin,
		format:  format,
	}, nil
}

func (c *cli) close() {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// report prints err and returns the exit code for its kind.
func report(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", domain.Reason(err))
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return exitAuth
	case errors.Is(err, domain.ErrValidationRejected), errors.Is(err, domain.ErrNotAuction):
		return exitRejected
	case errors.Is(err, domain.ErrNotFound):
		return exitNotFound
	case errors.Is(err, domain.ErrTransportUnavailable), errors.Is(err, context.DeadlineExceeded):
		return exitTransport
	case errors.Is(err, domain.ErrMalformedEvent):
		return exitMalformed
	default:
		return exitFailure
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: marketctl [-config FILE] [-format text|json] [-v] COMMAND [ARGS]")
	fmt.Fprintln(w, "\ncommands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}
