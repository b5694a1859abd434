// Command srukf filters (and optionally smooths) a measurement series with the
// square-root unscented Kalman filter and stores the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/srukf/internal/monitoring"
	"github.com/banshee-data/srukf/internal/version"
)

var (
	configPath  = flag.String("config", "", "Tuning JSON file (built-in defaults when empty)")
	inputPath   = flag.String("input", "", "CSV file of t,u...,z... records")
	serialPort  = flag.String("serial", "", "Serial device streaming t,u...,z... lines")
	baudRate    = flag.Int("baud", 0, "Serial baud rate (0 uses the default)")
	samples     = flag.Int("samples", 0, "Number of serial samples to collect (0 reads until EOF or interrupt)")
	dbPath      = flag.String("db", "", "SQLite database to record the run in")
	plotsDir    = flag.String("plots", "", "Directory for per-state PNG plots")
	htmlPath    = flag.String("html", "", "Write an interactive HTML chart page to this file")
	logFile     = flag.String("log-file", "srukf.log", "Log file (empty disables file logging)")
	logLevel    = flag.String("log-level", "DEBUG", "Minimum level recorded by any sink")
	verbose     = flag.Bool("verbose", false, "Log to the console at DEBUG and trace filter intermediates")
	noSmooth    = flag.Bool("no-smooth", false, "Skip the backward smoothing pass")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if (*inputPath == "") == (*serialPort == "") {
		log.Fatal("exactly one of -input or -serial is required")
	}

	lvl, err := monitoring.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid -log-level: %v", err)
	}
	logOpts := monitoring.DefaultOptions()
	logOpts.Level = lvl
	logOpts.FilePath = *logFile
	if *verbose {
		logOpts.ConsoleLevel = monitoring.LevelDebug
	}
	if err := monitoring.Configure(logOpts); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer monitoring.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, runOptions{
		ConfigPath: *configPath,
		InputPath:  *inputPath,
		SerialPort: *serialPort,
		BaudRate:   *baudRate,
		Samples:    *samples,
		DBPath:     *dbPath,
		PlotsDir:   *plotsDir,
		HTMLPath:   *htmlPath,
		Trace:      *verbose,
		NoSmooth:   *noSmooth,
	})
	if err != nil {
		monitoring.Errorf("run failed: %v", err)
		monitoring.Close()
		os.Exit(1)
	}
	if res.RunID != "" {
		fmt.Println(res.RunID)
	}
}
