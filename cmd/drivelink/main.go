package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/drivesim/internal/config"
	"github.com/banshee-data/drivesim/internal/drivelink"
	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/plant"
	"github.com/banshee-data/drivesim/internal/serialmux"
	"github.com/banshee-data/drivesim/internal/timeutil"
	"github.com/banshee-data/drivesim/internal/vehicle"
	"github.com/banshee-data/drivesim/internal/version"
)

var (
	port        = flag.String("port", "/dev/ttyUSB0", "Serial device to serve, or - for stdin/stdout")
	baud        = flag.Int("baud", serialmux.DefaultBaudRate, "Serial baud rate")
	configPath  = flag.String("config", "", "Path to a JSON or YAML run config (built-in defaults when empty)")
	pathFile    = flag.String("path", "", "Optional waypoint loop; TEL reports the targeted index when set")
	lockstep    = flag.Bool("lockstep", false, "Advance one tick per ACT line instead of free-running in real time")
	reportEvery = flag.Int("report-every", drivelink.DefaultReportEvery, "Free-running ticks between TEL lines")
	waitFirst   = flag.Bool("wait", true, "Free-running: hold until the host sends its first line")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	verbose     = flag.Bool("verbose", false, "Log ignored lines and per-tick events")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("drivelink", version.String())
		return
	}
	if *listPorts {
		ports, err := serialmux.Ports()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}
	if *port == "" {
		log.Fatal("Serial port is required")
	}
	monitoring.SetVerbose(*verbose)

	var mux serialmux.Mux
	if *port == "-" {
		mux = serialmux.NewSerialMux(serialmux.StreamPort{Reader: os.Stdin, Writer: os.Stdout})
	} else {
		var err error
		mux, err = serialmux.NewRealSerialMux(*port, serialmux.PortOptions{BaudRate: *baud})
		if err != nil {
			log.Fatalf("failed to open drive link: %v", err)
		}
	}
	defer mux.Close()

	link, err := newLink(mux, *configPath, *pathFile)
	if err != nil {
		log.Fatalf("drivelink: %v", err)
	}
	link.Lockstep = *lockstep
	link.ReportEvery = *reportEvery
	link.WaitFirst = *waitFirst
	if !link.Lockstep {
		link.Clock = timeutil.RealClock{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("serving drive link on %s (lockstep=%v, dt=%gs)", *port, link.Lockstep, link.Dt)
	if err := link.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("drive link stopped: %v", err)
	}
	log.Print("drive link terminated")
}

// newLink builds a vehicle without a tracking strategy, so the host is the
// only input source, and a reference plant for it to drive.
func newLink(mux serialmux.Mux, configPath, pathFile string) (*drivelink.Link, error) {
	cfg := config.EmptyConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	dcfg, err := cfg.DrivetrainConfig()
	if err != nil {
		return nil, err
	}
	pcfg, err := cfg.PlantConfig()
	if err != nil {
		return nil, err
	}
	diffs, err := cfg.DifferentialUnits(dcfg)
	if err != nil {
		return nil, err
	}
	bars, err := cfg.AntiRollBarUnits(dcfg)
	if err != nil {
		return nil, err
	}

	opts := []vehicle.Option{vehicle.WithDifferentials(diffs...), vehicle.WithAntiRollBars(bars...)}
	var start kinematics.Pose
	if pathFile != "" {
		path, err := config.LoadPath(pathFile)
		if err != nil {
			return nil, err
		}
		nav, err := navigator.New(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, vehicle.WithNavigator(nav))
		start = path.StartPose()
	}

	v, err := vehicle.New(dcfg, opts...)
	if err != nil {
		return nil, err
	}
	body, err := plant.New(pcfg, dcfg.Wheels, start)
	if err != nil {
		return nil, err
	}
	return &drivelink.Link{
		Mux:     mux,
		Vehicle: v,
		Plant:   body,
		Start:   start,
		Dt:      cfg.GetDt(),
	}, nil
}
