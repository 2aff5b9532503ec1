package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds the parsed command line
type AppOptions struct {
	ConfigFile   string
	EstimateFile string
	OutputFile   string
	RenderFormat string
	StateCache   string
	HttpPort     int
	RenderOnly   bool
	MqttMode     bool
	HttpMode     bool
}

// Application is the set of entry points run dispatches to
type Application interface {
	ApplyOptions(opts AppOptions)
	RunEstimate(path string) error
	RunRender() error
	RunService() error
}

func main() {
	err := run(os.Args[1:], os.Stdout, NewApp())
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run parses args and dispatches to the selected mode
func run(args []string, stdout io.Writer, app Application) error {
	fs := flag.NewFlagSet("ledlocate", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.EstimateFile, "estimate", "", "Estimate the position from a JSON observation cycle (file or http(s) URL) and exit")
	fs.BoolVar(&opts.RenderOnly, "render", false, "Render the beacon map (and the -estimate result, if any) and exit")
	fs.StringVar(&opts.OutputFile, "output", "", "Output file for --render mode (default map.svg or map.png)")
	fs.StringVar(&opts.RenderFormat, "format", "svg", "Render format: svg, png or geojson")
	fs.StringVar(&opts.StateCache, "state-cache", ".ledlocate-position.json", "Path to the last-position cache file; empty disables it")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Run MQTT service mode: estimate positions from observation messages")
	fs.BoolVar(&opts.HttpMode, "http", false, "Enable HTTP server for position, history, metrics and map endpoints")
	fs.IntVar(&opts.HttpPort, "http-port", 8080, "HTTP server port")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "ledlocate version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.RenderOnly:
		return app.RunRender()
	case opts.EstimateFile != "":
		return app.RunEstimate(opts.EstimateFile)
	case opts.MqttMode || opts.HttpMode:
		return app.RunService()
	}

	fmt.Fprintln(stdout, "ledlocate service starting...")
	fmt.Fprintln(stdout, "Use --estimate=cycle.json to estimate a position from recorded observations")
	fmt.Fprintln(stdout, "Use --render to output the beacon map (add --estimate to overlay the result)")
	fmt.Fprintln(stdout, "Use --mqtt to run MQTT service mode")
	fmt.Fprintln(stdout, "Use --http to run HTTP server mode")
	fmt.Fprintln(stdout, "Use --mqtt --http to run both MQTT and HTTP together")
	fmt.Fprintln(stdout, "\nConfiguration:")
	fmt.Fprintln(stdout, "  config.yaml - beacons, perimeter mode, tolerances and MQTT settings")
	return nil
}
