package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kwv/ledlocate/locate"
	"github.com/prometheus/client_golang/prometheus"
)

// cycleFetchDeadline bounds all attempts of a -estimate URL fetch
const cycleFetchDeadline = 30 * time.Second

// App encapsulates the application state and dependencies
type App struct {
	Config        *locate.Config
	Configuration *locate.Configuration
	Estimator     *locate.Estimator
	Metrics       *locate.Metrics
	StateTracker  *locate.StateTracker
	MQTTClient    *locate.MQTTClient
	Publisher     *locate.Publisher

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	EstimateFile string
	OutputFile   string
	RenderFormat string
	StateCache   string
	HttpPort     int
	MqttMode     bool
	HttpMode     bool

	Out io.Writer
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		StateTracker: locate.NewStateTracker(locate.DefaultHistorySize),
		Out:          os.Stdout,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.EstimateFile = opts.EstimateFile
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.StateCache = opts.StateCache
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// setup loads the config file and builds the estimator and its collaborators
func (a *App) setup() error {
	config, err := locate.LoadConfig(a.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", a.ConfigFile, err)
	}
	log.Printf("Loaded config from %s", a.ConfigFile)
	return a.useConfig(config)
}

// useConfig builds the estimator stack from an already-loaded config
func (a *App) useConfig(config *locate.Config) error {
	cfg, err := config.Configuration()
	if err != nil {
		return fmt.Errorf("invalid beacon configuration: %w", err)
	}

	metrics, err := locate.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	a.Config = config
	a.Configuration = cfg
	a.Metrics = metrics
	a.Estimator = locate.NewEstimator(cfg, metrics)
	a.StateTracker = locate.NewStateTrackerWithCache(config.GetHistorySize(), a.StateCache)

	log.Printf("Registry: %d beacons, %d on the perimeter, %s mode",
		cfg.Registry().Len(), len(cfg.Registry().Perimeter()), cfg.Mode())
	return nil
}

// loadCycle reads a JSON observation cycle from disk, or fetches it when
// path is an http(s) URL
func loadCycle(path string) (*locate.Cycle, error) {
	if locate.IsCycleURL(path) {
		ctx, cancel := context.WithTimeout(context.Background(), cycleFetchDeadline)
		defer cancel()
		return locate.FetchCycle(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cycle file: %w", err)
	}
	return locate.DecodeCycle(data)
}

// estimateFile runs the cycle stored at path. A cycle that simply yields no
// estimate is not an error; configuration problems are.
func (a *App) estimateFile(path string) (*locate.Result, error) {
	cycle, err := loadCycle(path)
	if err != nil {
		return nil, err
	}
	res, err := a.Estimator.Estimate(*cycle)
	a.StateTracker.Record(res)
	if err != nil && locate.IsConfigurationError(err) {
		return res, err
	}
	return res, nil
}

// RunEstimate estimates one position from a recorded cycle and prints the
// result as JSON
func (a *App) RunEstimate(path string) error {
	if err := a.setup(); err != nil {
		return err
	}
	res, err := a.estimateFile(path)
	if res != nil {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return fmt.Errorf("encoding result: %w", encErr)
		}
	}
	return err
}

// RunRender draws the beacon map, with the -estimate result when given
func (a *App) RunRender() error {
	if err := a.setup(); err != nil {
		return err
	}

	var res *locate.Result
	if a.EstimateFile != "" {
		var err error
		if res, err = a.estimateFile(a.EstimateFile); err != nil {
			return err
		}
	}

	format := a.RenderFormat
	if format == "" {
		format = "svg"
	}
	output := a.OutputFile
	if output == "" {
		output = "map." + format
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", output, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: error closing output file %s: %v", output, err)
		}
	}()

	if err := locate.RenderResult(f, a.Configuration, res, format, a.Config.GetRenderScale()); err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}
	fmt.Fprintf(a.Out, "Map written to %s\n", output)
	return nil
}

// handleCycle records and publishes the outcome of one MQTT-delivered cycle
func (a *App) handleCycle(res *locate.Result, err error) {
	if res == nil {
		log.Printf("Dropping undecodable observation message: %v", err)
		return
	}
	a.StateTracker.Record(res)

	if err != nil && !errors.Is(err, locate.ErrInsufficientData) && !errors.Is(err, locate.ErrNoGoodCandidates) {
		log.Printf("[ESTIMATE] cycle %s rejected: %v", res.CycleID, err)
	}

	if a.Publisher != nil {
		if pubErr := a.Publisher.PublishResult(res); pubErr != nil {
			log.Printf("Error publishing cycle %s: %v", res.CycleID, pubErr)
		}
	}
}

// startMQTT connects to the broker and wires the publisher
func (a *App) startMQTT() error {
	mqttClient, err := locate.InitMQTT(a.Config, a.Estimator, a.handleCycle)
	if err != nil {
		return fmt.Errorf("initializing MQTT: %w", err)
	}
	if mqttClient == nil {
		return fmt.Errorf("MQTT broker not configured in %s", a.ConfigFile)
	}
	a.MQTTClient = mqttClient
	a.Publisher = locate.NewPublisher(mqttClient.GetClient(), a.Config.MQTT.PublishPrefix)
	fmt.Fprintln(a.Out, "MQTT position publisher initialized")
	return nil
}

// RunService starts the combined MQTT and/or HTTP service
func (a *App) RunService() error {
	fmt.Fprintln(a.Out, "Starting ledlocate service...")

	if err := a.setup(); err != nil {
		return err
	}

	if a.MqttMode {
		if err := a.startMQTT(); err != nil {
			return err
		}
	}

	if a.HttpMode {
		httpServer := newHTTPServer(a)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", a.HttpPort)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
			log.Printf("[HTTP] Server stopped unexpectedly")
		}()
	}

	a.printServiceInfo()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Fprintln(a.Out, "\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Fprintln(a.Out, "Service stopped")
	return nil
}

func (a *App) printServiceInfo() {
	fmt.Fprintln(a.Out, "\nService Running")
	fmt.Fprintln(a.Out, "===============")

	if a.MqttMode && a.MQTTClient != nil {
		fmt.Fprintln(a.Out, "\nMQTT:")
		fmt.Fprintf(a.Out, "  Subscribed topic: %s\n", a.MQTTClient.Topic())
		fmt.Fprintf(a.Out, "  Position: %s/position (retained)\n", a.Publisher.Prefix())
		fmt.Fprintf(a.Out, "  Status: %s/status\n", a.Publisher.Prefix())
	}

	if a.HttpMode {
		fmt.Fprintf(a.Out, "\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Fprintln(a.Out, "  GET  /health    - Health check")
		fmt.Fprintln(a.Out, "  GET  /position  - Last estimated position")
		fmt.Fprintln(a.Out, "  GET  /history   - Recent cycle results")
		fmt.Fprintln(a.Out, "  GET  /registry  - Beacon registry and perimeter")
		fmt.Fprintln(a.Out, "  GET  /metrics   - Prometheus metrics")
		fmt.Fprintln(a.Out, "  GET  /map.svg   - Beacon map with the last estimate")
		fmt.Fprintln(a.Out, "  GET  /map.png   - Same, rasterized")
		fmt.Fprintln(a.Out, "  GET  /map.geojson - Map features as GeoJSON")
		fmt.Fprintln(a.Out, "  POST /estimate  - Estimate from a JSON observation cycle")
	}

	fmt.Fprintln(a.Out, "\nPress Ctrl+C to stop")
}
