// cotaskdemo runs a small cooperative task pipeline: a periodic producer
// simulates sensor readings into a queue, an event-driven filter averages
// them into a share, and a reporter prints the average through the
// buffered console. It exists to exercise the scheduler end to end and to
// expose its metrics for scraping.
package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	cotask "github.com/spluttflob/cotask-go"
	"github.com/spluttflob/cotask-go/config"
	"github.com/spluttflob/cotask-go/console"
	"github.com/spluttflob/cotask-go/core"
	"github.com/spluttflob/cotask-go/nbinput"
	obs "github.com/spluttflob/cotask-go/observability/prometheus"
)

func main() {
	app := &cli.App{
		Name:  "cotaskdemo",
		Usage: "run the cooperative scheduler demo pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file path",
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "how long to run; 0 runs until interrupted (overrides config)",
			},
			&cli.StringFlag{
				Name:    "algorithm",
				Aliases: []string{"a"},
				Usage:   "scheduling algorithm: priority or round_robin (overrides config)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address, e.g. :2112 (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "trace filter task state transitions and print them on exit",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	cfg := config.Load(c.String("config"))
	if c.IsSet("algorithm") {
		cfg.Algorithm = c.String("algorithm")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	duration := cfg.Duration()
	if c.IsSet("duration") {
		duration = c.Duration("duration")
	}

	algo := cotask.AlgorithmPriority
	switch cfg.Algorithm {
	case "round_robin":
		algo = cotask.AlgorithmRoundRobin
	case "priority":
	default:
		return cli.Exit(fmt.Sprintf("unknown algorithm %q", cfg.Algorithm), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	registry := cotask.NewRegistry()

	samples, err := cotask.NewQueue[int16](cotask.QueueConfig{
		Size:          cfg.QueueSize,
		ThreadProtect: true,
		Name:          "Samples",
		Registry:      registry,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("creating sample queue: %v", err), 1)
	}
	average := cotask.NewShare[float32](cotask.ShareConfig{
		ThreadProtect: true,
		Name:          "Average",
		Registry:      registry,
	})

	out, err := console.New(console.Config{
		Priority: 0,
		Name:     "Printing",
		Registry: registry,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("creating console: %v", err), 1)
	}

	listCfg := core.DefaultTaskListConfig()
	listCfg.Logger = core.NewDefaultLogger()

	var promReg *prom.Registry
	var poller *obs.SnapshotPoller
	if cfg.MetricsAddr != "" {
		promReg = prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("cotask", promReg, obs.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("creating metrics exporter: %v", err), 1)
		}
		listCfg.Metrics = exporter

		poller, err = obs.NewSnapshotPoller(promReg, cfg.MetricsInterval())
		if err != nil {
			return cli.Exit(fmt.Sprintf("creating snapshot poller: %v", err), 1)
		}
	}

	tasks := cotask.NewTaskListWithConfig(listCfg)

	// Filter: event-driven, armed by the producer whenever data arrives.
	// Keeps a running exponential average of everything it drains.
	var avg float64
	filter := cotask.NewTaskFunc(func() core.State {
		drained := false
		for {
			v, ok := samples.TryGet()
			if !ok {
				break
			}
			avg = 0.9*avg + 0.1*float64(v)
			drained = true
		}
		average.Put(float32(avg))
		if drained {
			return 1
		}
		return 0
	}, cotask.TaskConfig{
		Name:     "Filter",
		Priority: 4,
		Profile:  true,
		Trace:    c.Bool("trace"),
	})

	// Producer: simulates a sensor at a fixed rate. TryPut drops samples
	// when the filter falls behind rather than stalling the pipeline.
	phase := 0.0
	producer := cotask.NewTaskFunc(func() core.State {
		phase += 0.05
		reading := int16(1000 * math.Sin(phase))
		samples.TryPut(reading)
		filter.Go()
		return 0
	}, cotask.TaskConfig{
		Name:     "Producer",
		Priority: 6,
		Period:   10 * time.Millisecond,
		Profile:  true,
	})

	reporter := cotask.NewTaskFunc(func() core.State {
		out.Put(fmt.Sprintf("average reading: %8.2f\r\n", average.Get()))
		return 0
	}, cotask.TaskConfig{
		Name:     "Reporter",
		Priority: 2,
		Period:   500 * time.Millisecond,
		Profile:  true,
	})

	// Command: event-driven, armed by the stdin pump below. Lets the user
	// ask for diagnostics while the pipeline runs.
	rx, err := cotask.NewQueue[uint8](cotask.QueueConfig{
		Size:          64,
		ThreadProtect: true,
		Name:          "KeysIn",
		Registry:      registry,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("creating input queue: %v", err), 1)
	}
	input := nbinput.New(nbinput.Config{Source: rx})
	command := cotask.NewTaskFunc(func() core.State {
		input.Check()
		line, ok := input.Get()
		if !ok {
			return 0
		}
		switch line {
		case "stats":
			out.Put(tasks.String())
		case "shares":
			out.Put(registry.ShowAll() + "\n")
		default:
			out.Put("commands: stats, shares\r\n")
		}
		return 1
	}, cotask.TaskConfig{
		Name:     "Command",
		Priority: 3,
	})

	tasks.Append(producer)
	tasks.Append(filter)
	tasks.Append(reporter)
	tasks.Append(command)
	tasks.Append(out.Task())

	// Stdin pump: stands in for a receive interrupt on a hosted target.
	// Being a real goroutine rather than a preempting handler, it must go
	// through the guarded TryPut, not the ISR variant.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				rx.TryPut(buf[0])
				command.Go()
			}
		}
	}()

	if poller != nil {
		poller.AddTaskList("main", tasks)
		poller.AddRegistry("main", registry)
		poller.Start(ctx)
		defer poller.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			_ = server.ListenAndServe()
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	tasks.Run(ctx, algo)

	fmt.Println()
	fmt.Print(tasks.String())
	fmt.Println()
	fmt.Println(registry.ShowAll())
	if c.Bool("trace") {
		fmt.Println()
		fmt.Print(filter.Trace())
	}
	return nil
}
