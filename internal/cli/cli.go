package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/modernice/hakim"
	"github.com/modernice/hakim/internal/config"
	"github.com/modernice/hakim/internal/metrics"
	"github.com/modernice/hakim/server"
)

// Options are the command-line options of the hakim server.
type Options struct {
	config.Config `embed:""`

	Addr         string        `name:"addr" short:"a" env:"HAKIM_ADDR" default:":5000" help:"Listen address"`
	Timeout      time.Duration `name:"timeout" env:"HAKIM_TIMEOUT" default:"3m" help:"Deadline of a single chat request"`
	AllowOrigins []string      `name:"allow-origin" env:"HAKIM_ALLOW_ORIGINS" help:"Allowed CORS origins (default: all)"`
	NoMetrics    bool          `name:"no-metrics" env:"HAKIM_NO_METRICS" help:"Disable the /metrics endpoint"`
	EnvFile      []string      `name:"env-file" help:"Environment files to load" default:".env"`

	Version kong.VersionFlag `help:"Print the version and exit"`
}

// App is the hakim server application. It answers medical questions over
// HTTP until it receives SIGINT or SIGTERM.
type App struct {
	kong    *kong.Context
	options Options
}

// New parses the command line and returns the App.
func New() *App {
	loadEnv(os.Args[1:])

	var app App
	app.kong = kong.Parse(
		&app.options,
		kong.Name("hakim"),
		kong.Description("Hakim answers medical questions in Amharic, Afaan Oromo and other languages, powered by translation and medical language models."),
		kong.Vars{"version": hakim.Version()},
		kong.UsageOnError(),
	)
	return &app
}

// Options returns the parsed options.
func (app *App) Options() Options {
	return app.options
}

// Run serves the HTTP API.
func (app *App) Run() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := app.options
	setGinMode(opts.Verbose)

	var m *metrics.Metrics
	var pipelineOpts []hakim.Option
	if !opts.NoMetrics {
		m = metrics.New()
		pipelineOpts = append(pipelineOpts, hakim.Observe(m.Observer()))
	}

	pipeline, err := opts.Pipeline(ctx, pipelineOpts...)
	app.kong.FatalIfErrorf(err, "failed to configure pipeline")

	srv := server.New(
		pipeline,
		server.Timeout(opts.Timeout),
		server.AllowOrigins(opts.AllowOrigins...),
		server.Metrics(m),
		server.Verbose(opts.Verbose),
	)

	log.Printf("hakim %s listening on %s (translator: %s, model: %s)", hakim.Version(), opts.Addr, opts.Translator, opts.GenerationModel)

	app.kong.FatalIfErrorf(srv.Run(ctx, opts.Addr))
}

// setGinMode silences gin's debug output unless verbose is set.
func setGinMode(verbose bool) {
	if verbose {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// loadEnv loads the files of the --env-file flags, or ".env", before kong
// reads the environment. A missing default file is not an error.
func loadEnv(args []string) {
	var files []string
	for i, arg := range args {
		switch {
		case arg == "--env-file" && i+1 < len(args):
			files = append(files, args[i+1])
		case strings.HasPrefix(arg, "--env-file="):
			files = append(files, strings.TrimPrefix(arg, "--env-file="))
		}
	}

	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("load .env: %v", err)
		}
		return
	}

	if err := godotenv.Load(files...); err != nil {
		log.Fatalf("load env files: %v", err)
	}
}
