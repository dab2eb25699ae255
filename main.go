package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sync"

	"github.com/rivo/tview"

	"github.com/filetug/lazyfiler/pkg/logging"
	"github.com/filetug/lazyfiler/pkg/metrics"
	"github.com/filetug/lazyfiler/pkg/profiling"
	"github.com/filetug/lazyfiler/pkg/settings"
	"github.com/filetug/lazyfiler/pkg/state"
	"github.com/filetug/lazyfiler/pkg/tui"
)

var (
	dirFlag    = flag.String("dir", "", "directory to open, defaults to the last one opened or the working directory")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn or error")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to `file`")
	memProfile = flag.String("memprofile", "", "write memory profile to `file`")
	pprofAddr  = flag.String("pprof", "", "serve pprof and /metrics on `address` (e.g. localhost:6060)")
)

var httpListenAndServe = http.ListenAndServe
var osExit = os.Exit
var osGetwd = os.Getwd
var pprofStopCPUProfile = pprof.StopCPUProfile

var registerMetrics sync.Once

var loadSettings = settings.Load
var loadState = state.Load
var initLogging = logging.Init

func main() {
	app, stop := newLazyFilerApp()
	run(app)
	stop()
	_ = logging.Sync()
}

// newLazyFilerApp builds the application. stop ends the profiles started for
// it and is called once the application has run.
func newLazyFilerApp() (app *tview.Application, stop func()) {
	flag.Parse()

	cfg, err := loadSettings()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "settings: %v\n", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err = initLogging(logConfig(cfg.Log)); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logging: %v\n", err)
	}

	if addr := serveAddr(cfg); addr != "" {
		registerMetrics.Do(func() {
			http.Handle("/metrics", metrics.Handler())
		})
		go func() {
			err := httpListenAndServe(addr, nil)
			if err != nil {
				logging.Error("pprof server error", logging.String("addr", addr), logging.Err(err))
			}
		}()
	}

	var stops []func()
	stop = func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			pprofStopCPUProfile()
			osExit(1)
		}
	}()

	if *cpuProfile != "" {
		stops = append(stops, profiling.DoCPUProfiling(*cpuProfile))
	}

	if *memProfile != "" {
		stops = append(stops, profiling.DoMemProfiling(*memProfile))
	}

	app = newApp(explorerConfig(cfg))
	return app, stop
}

func serveAddr(cfg settings.Settings) string {
	if *pprofAddr != "" {
		return *pprofAddr
	}
	return cfg.MetricsAddr
}

// logConfig sends logs to a file next to the settings unless told otherwise,
// the terminal belongs to the UI.
func logConfig(l settings.Log) logging.Config {
	out := l.File
	if out == "" {
		if dir, err := settings.GetUserDir(); err == nil && os.MkdirAll(dir, 0o755) == nil {
			out = filepath.Join(dir, "lazyfiler.log")
		}
	}
	return logging.Config{Level: l.Level, Format: l.Format, OutputPath: out}
}

func explorerConfig(cfg settings.Settings) tui.Config {
	last, err := loadState()
	if err != nil {
		logging.Warn("failed to load state", logging.Err(err))
	}
	dir := *dirFlag
	if dir == "" {
		dir = last.Root
	}
	if dir == "" {
		if dir, err = osGetwd(); err != nil {
			dir = "."
		}
	}
	return tui.Config{
		Dir:       dir,
		Style:     cfg.Style,
		GitStatus: cfg.GitEnabled(),
		Editor:    cfg.EditorCommand(),
		Expanded:  append(append([]string(nil), cfg.Expanded...), last.Expanded...),
	}
}

var setupApp = func(app *tview.Application, cfg tui.Config) {
	tui.SetupApp(app, cfg)
}

var newApp = func(cfg tui.Config) *tview.Application {
	app := tview.NewApplication()
	setupApp(app, cfg)
	return app
}

type application interface{ Run() error }

var run = func(app application) {
	if err := app.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}
