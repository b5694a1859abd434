package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/banshee-data/srukf/internal/config"
	"github.com/banshee-data/srukf/internal/db"
	"github.com/banshee-data/srukf/internal/models"
	"github.com/banshee-data/srukf/internal/monitoring"
	"github.com/banshee-data/srukf/internal/report"
	"github.com/banshee-data/srukf/internal/source"
	"github.com/banshee-data/srukf/internal/ukf"
)

type runOptions struct {
	ConfigPath string
	InputPath  string
	SerialPort string
	BaudRate   int
	Samples    int
	DBPath     string
	PlotsDir   string
	HTMLPath   string
	Trace      bool
	NoSmooth   bool

	// openPort replaces source.OpenPort in tests.
	openPort source.Opener
}

type runResult struct {
	RunID    string
	Filtered *ukf.Trajectory
	Smoothed *ukf.Smoothed
	Plots    []string
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func readSeries(ctx context.Context, o runOptions, nInputs, nOutputs int) (ukf.Series, string, error) {
	if o.InputPath != "" {
		f, err := os.Open(o.InputPath)
		if err != nil {
			return ukf.Series{}, "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		series, err := source.ReadCSV(f, nInputs, nOutputs)
		return series, o.InputPath, err
	}

	src, err := source.OpenSerial(o.openPort, o.SerialPort, source.PortOptions{BaudRate: o.BaudRate}, nInputs, nOutputs)
	if err != nil {
		return ukf.Series{}, "", err
	}
	defer src.Close()

	monitoring.Infof("reading samples from %s", o.SerialPort)
	series, err := src.Read(ctx, o.Samples)
	if errors.Is(err, context.Canceled) && series.Len() > 0 {
		monitoring.Warnf("interrupted after %d samples, filtering what was read", series.Len())
		err = nil
	}
	return series, o.SerialPort, err
}

func run(ctx context.Context, o runOptions) (*runResult, error) {
	tc, err := loadTuning(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	spec := models.SpecFromTuning(tc)
	model, err := models.New(spec)
	if err != nil {
		return nil, err
	}
	cfg, err := configFromTuning(tc)
	if err != nil {
		return nil, err
	}

	series, sourceName, err := readSeries(ctx, o, spec.NInputs, spec.NOutputs)
	if err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, errors.New("no samples to filter")
	}
	monitoring.Infof("filtering %d samples from %s with model %s", series.Len(), sourceName, spec.Name)

	init := initialFromTuning(tc)
	if len(series.Inputs) > 0 {
		// Hold the first input over the interval before the first sample.
		init.Input = series.Inputs[0]
	}

	stepOpts := ukf.StepOptions{Adaptive: tc.GetAdaptive()}
	var tracer monitoring.MatrixTracer
	if o.Trace {
		stepOpts.Trace = tracer.WithPrefix("filter")
	}
	traj, err := cfg.Run(model, series, init, outputSqrtCovFromTuning(tc), stepOpts)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	res := &runResult{Filtered: traj}

	if tc.GetSmooth() && !o.NoSmooth {
		smoothOpts := ukf.SmoothOptions{}
		if o.Trace {
			smoothOpts.Trace = tracer.WithPrefix("smoother")
		}
		res.Smoothed, err = cfg.Smooth(model, traj, ukf.Diag(tc.GetProcessSqrtCovDiag()), smoothOpts)
		if err != nil {
			return nil, fmt.Errorf("smoother: %w", err)
		}
	}

	last := traj.Len() - 1
	monitoring.Infof("final state %v, std dev %v", traj.States[last].X.RawVector().Data, traj.StdDev(last))

	if o.DBPath != "" {
		if res.RunID, err = record(o.DBPath, tc, spec, sourceName, res); err != nil {
			return nil, err
		}
		monitoring.Infof("recorded run %s in %s", res.RunID, o.DBPath)
	}

	in := report.Input{Title: spec.Name, Filtered: res.Filtered, Smoothed: res.Smoothed}
	if o.PlotsDir != "" {
		if res.Plots, err = report.SavePNG(o.PlotsDir, in); err != nil {
			return nil, fmt.Errorf("plots: %w", err)
		}
	}
	if o.HTMLPath != "" {
		if err := writeHTML(o.HTMLPath, in); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func record(path string, tc *config.TuningConfig, spec models.Spec, sourceName string, res *runResult) (string, error) {
	store, err := db.NewDB(path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	cfgJSON, err := json.Marshal(tc)
	if err != nil {
		return "", fmt.Errorf("encode tuning: %w", err)
	}
	id, err := store.CreateRun(db.Run{
		Model:      spec.Name,
		NState:     spec.NState,
		NOutputs:   spec.NOutputs,
		Adaptive:   tc.GetAdaptive(),
		Source:     sourceName,
		ConfigJSON: string(cfgJSON),
	})
	if err != nil {
		return "", err
	}
	if err := store.RecordTrajectory(id, db.KindFiltered, db.FilteredPoints(res.Filtered)); err != nil {
		return "", err
	}
	if res.Smoothed != nil {
		if err := store.RecordTrajectory(id, db.KindSmoothed, db.SmoothedPoints(res.Smoothed)); err != nil {
			return "", err
		}
	}
	return id, nil
}

func writeHTML(path string, in report.Input) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html: %w", err)
	}
	if err := report.RenderHTML(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
