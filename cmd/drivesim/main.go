package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/drivesim/internal/config"
	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/plant"
	"github.com/banshee-data/drivesim/internal/report"
	"github.com/banshee-data/drivesim/internal/telemetry"
	"github.com/banshee-data/drivesim/internal/timeutil"
	"github.com/banshee-data/drivesim/internal/tracking"
	"github.com/banshee-data/drivesim/internal/units"
	"github.com/banshee-data/drivesim/internal/vehicle"
	"github.com/banshee-data/drivesim/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON or YAML run config (built-in defaults when empty)")
	pathFile    = flag.String("path", "config/paths/oval.json", "Waypoint loop to follow (JSON or YAML)")
	strategy    = flag.String("strategy", "", "Tracking strategy: proportional, pure_pursuit, stanley or mpc (overrides config)")
	engine      = flag.String("engine", "", "Engine preset (overrides config)")
	duration    = flag.Duration("duration", 0, "Simulated run length, e.g. 90s (overrides config)")
	dt          = flag.Float64("dt", 0, "Seconds per physics tick (overrides config)")
	dbPath      = flag.String("db", "", "Record the run into this sqlite database")
	chartsPath  = flag.String("charts", "", "Write an HTML page of telemetry charts to this file")
	plotPath    = flag.String("plot", "", "Write a trajectory plot (.png, .svg or .pdf) to this file")
	realtime    = flag.Bool("realtime", false, "Pace ticks to the wall clock")
	speedUnits  = flag.String("units", units.KPH, "Speed units for the summary: "+units.GetValidUnitsString())
	verbose     = flag.Bool("verbose", false, "Log gear shifts and other per-tick events")
	list        = flag.Bool("list", false, "List strategies and engine presets, then exit")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

// options is the parsed command line.
type options struct {
	config, path     string
	strategy, engine string
	duration         time.Duration
	dt               float64
	db, charts, plot string
	realtime         bool
	units            string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("drivesim", version.String())
		return
	}
	if *list {
		printLists(os.Stdout)
		return
	}
	monitoring.SetVerbose(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o := options{
		config:   *configPath,
		path:     *pathFile,
		strategy: *strategy,
		engine:   *engine,
		duration: *duration,
		dt:       *dt,
		db:       *dbPath,
		charts:   *chartsPath,
		plot:     *plotPath,
		realtime: *realtime,
		units:    *speedUnits,
	}
	if err := run(ctx, o, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Print("run interrupted")
			return
		}
		log.Fatalf("drivesim: %v", err)
	}
}

func printLists(w io.Writer) {
	kinds := make([]string, 0, len(tracking.Kinds()))
	for _, k := range tracking.Kinds() {
		kinds = append(kinds, string(k))
	}
	fmt.Fprintf(w, "strategies: %s\n", strings.Join(kinds, ", "))
	fmt.Fprintf(w, "engines:    %s\n", strings.Join(drivetrain.EnginePresetNames(), ", "))
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(o options) (*config.Config, error) {
	cfg := config.EmptyConfig()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return nil, err
		}
	}
	if o.strategy != "" {
		cfg.Strategy = &o.strategy
	}
	if o.engine != "" {
		cfg.EnginePreset = &o.engine
	}
	if o.duration != 0 {
		d := o.duration.String()
		cfg.Duration = &d
	}
	if o.dt != 0 {
		cfg.Dt = &o.dt
	}
	if o.realtime {
		cfg.Realtime = &o.realtime
	}
	if o.units != "" && !units.IsValid(o.units) {
		return nil, fmt.Errorf("invalid units %q: must be one of %s", o.units, units.GetValidUnitsString())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, o options, w io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	dcfg, err := cfg.DrivetrainConfig()
	if err != nil {
		return err
	}
	params, err := cfg.TrackingParams()
	if err != nil {
		return err
	}
	pcfg, err := cfg.PlantConfig()
	if err != nil {
		return err
	}
	diffs, err := cfg.DifferentialUnits(dcfg)
	if err != nil {
		return err
	}
	bars, err := cfg.AntiRollBarUnits(dcfg)
	if err != nil {
		return err
	}

	path, err := config.LoadPath(o.path)
	if err != nil {
		return err
	}
	nav, err := navigator.New(path)
	if err != nil {
		return err
	}
	strat, err := tracking.New(cfg.GetStrategy(), params)
	if err != nil {
		return err
	}

	rec := telemetry.NewRecorder()
	sinks := telemetry.Multi{rec}

	var dbRun *telemetry.Run
	if o.db != "" {
		store, err := telemetry.Open(o.db)
		if err != nil {
			return fmt.Errorf("failed to open telemetry store: %w", err)
		}
		defer store.Close()

		dbRun, err = store.StartRun(ctx, telemetry.RunInfo{
			Strategy: string(strat.Name()),
			PathName: filepath.Base(o.path),
			Dt:       cfg.GetDt(),
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, dbRun)
		log.Printf("recording run %s to %s", dbRun.ID(), o.db)
	}

	v, err := vehicle.New(dcfg,
		vehicle.WithNavigator(nav),
		vehicle.WithStrategy(strat),
		vehicle.WithDifferentials(diffs...),
		vehicle.WithAntiRollBars(bars...),
		vehicle.WithSink(sinks),
		vehicle.WithSampleInterval(cfg.GetSampleInterval()),
	)
	if err != nil {
		return err
	}
	body, err := plant.New(pcfg, dcfg.Wheels, path.StartPose())
	if err != nil {
		return err
	}

	runner := &vehicle.Runner{Vehicle: v, Plant: body, Dt: cfg.GetDt()}
	if cfg.GetRealtime() {
		runner.Clock = timeutil.RealClock{}
	}

	log.Printf("driving %s with %s for %s at dt=%gs", filepath.Base(o.path), strat.Name(), cfg.GetDuration(), cfg.GetDt())
	sum, runErr := runner.Run(ctx, cfg.GetDuration().Seconds())

	// An interrupted run still gets its summary, record and reports.
	errs := []error{runErr}
	if dbRun != nil {
		err := dbRun.Finish(telemetry.RunSummary{
			SimSeconds: sum.SimSeconds,
			Laps:       sum.Laps,
			MeanSpeed:  sum.MeanSpeed,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to record run: %w", err))
		}
	}
	if err := writeOutputs(o, path, rec.Samples()); err != nil {
		errs = append(errs, err)
	}

	printSummary(w, strat.Name(), sum, o.units)
	return errors.Join(errs...)
}

func writeOutputs(o options, path navigator.Path, samples []telemetry.PoseSample) error {
	if o.charts != "" {
		f, err := os.Create(o.charts)
		if err != nil {
			return err
		}
		if err := report.WriteCharts(f, samples); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote charts to %s", o.charts)
	}
	if o.plot != "" {
		if err := report.PlotTrajectory(o.plot, path.Waypoints, samples); err != nil {
			return err
		}
		log.Printf("wrote trajectory plot to %s", o.plot)
	}
	return nil
}

func printSummary(w io.Writer, kind tracking.Kind, sum vehicle.Summary, unit string) {
	if unit == "" {
		unit = units.KPH
	}
	fmt.Fprintf(w, "strategy:   %s\n", kind)
	fmt.Fprintf(w, "ticks:      %d (%.1fs simulated)\n", sum.Ticks, sum.SimSeconds)
	fmt.Fprintf(w, "distance:   %.1f m\n", sum.Distance)
	fmt.Fprintf(w, "mean speed: %.1f %s\n", units.ConvertSpeed(sum.MeanSpeed, unit), unit)
	fmt.Fprintf(w, "max speed:  %.1f %s\n", units.ConvertSpeed(sum.MaxSpeed, unit), unit)
	fmt.Fprintf(w, "laps:       %d\n", sum.Laps)
	if sum.Laps > 0 {
		fmt.Fprintf(w, "best lap:   %.2fs\n", sum.BestLap)
	}
	if sum.Late > 0 {
		fmt.Fprintf(w, "late:       %v\n", sum.Late)
	}
}
