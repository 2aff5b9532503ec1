package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kwv/ledlocate/locate"
)

const testConfigYAML = `mode: polygon
initHeading: -45
initDirection: {x: -10, y: -10}
beacons:
  - {color: red, x: 3, y: 3}
  - {color: yellow, x: 13, y: 5}
  - {color: blue, x: 11, y: 9}
  - {color: green, x: 1, y: 10}
`

// testCycleJSON locates the robot near (7, 7) once the odometry hint
// discards the outlying candidates.
const testCycleJSON = `{
  "headingToNorth": -90,
  "odometry": {"lastPosition": {"x": 6.5, "y": 6.7}, "distanceTraveled": 0.6, "tolerance": 0.03},
  "readings": [
    {"color": "red", "bearing": 134},
    {"color": "yellow", "bearing": 19},
    {"color": "blue", "bearing": -25}
  ]
}`

// noConsensusCycleJSON is the same sweep without odometry: no candidate
// reaches the agreement threshold.
const noConsensusCycleJSON = `{
  "headingToNorth": -90,
  "readings": [
    {"color": "red", "bearing": 134},
    {"color": "yellow", "bearing": 19},
    {"color": "blue", "bearing": -25}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// newTestApp returns an App configured from testConfigYAML, writing into out
func newTestApp(t *testing.T, out *bytes.Buffer) *App {
	t.Helper()
	dir := t.TempDir()
	app := NewApp()
	app.ConfigFile = writeFile(t, dir, "config.yaml", testConfigYAML)
	app.StateCache = filepath.Join(dir, "position.json")
	if out != nil {
		app.Out = out
	}
	if err := app.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app == nil {
		t.Fatal("NewApp returned nil")
		return
	}
	if app.StateTracker == nil {
		t.Error("StateTracker should be initialized")
	}
	if app.Out != os.Stdout {
		t.Error("Out should default to stdout")
	}
}

func TestApplyOptions(t *testing.T) {
	app := NewApp()
	opts := AppOptions{
		ConfigFile:   "test-config.yaml",
		EstimateFile: "cycle.json",
		OutputFile:   "test-output.png",
		RenderFormat: "png",
		StateCache:   ".test-cache.json",
		HttpPort:     8080,
		MqttMode:     true,
		HttpMode:     false,
	}

	app.ApplyOptions(opts)

	if app.ConfigFile != "test-config.yaml" {
		t.Errorf("ConfigFile = %s, want test-config.yaml", app.ConfigFile)
	}
	if app.EstimateFile != "cycle.json" {
		t.Errorf("EstimateFile = %s, want cycle.json", app.EstimateFile)
	}
	if app.OutputFile != "test-output.png" {
		t.Errorf("OutputFile = %s, want test-output.png", app.OutputFile)
	}
	if app.RenderFormat != "png" {
		t.Errorf("RenderFormat = %s, want png", app.RenderFormat)
	}
	if app.StateCache != ".test-cache.json" {
		t.Errorf("StateCache = %s, want .test-cache.json", app.StateCache)
	}
	if app.HttpPort != 8080 {
		t.Errorf("HttpPort = %d, want 8080", app.HttpPort)
	}
	if !app.MqttMode {
		t.Error("MqttMode should be true")
	}
	if app.HttpMode {
		t.Error("HttpMode should be false")
	}
}

func TestSetup(t *testing.T) {
	app := newTestApp(t, nil)

	if app.Estimator == nil || app.Configuration == nil || app.Metrics == nil {
		t.Fatal("setup should build the estimator stack")
	}
	if got := app.Configuration.Registry().Len(); got != 4 {
		t.Errorf("registry has %d beacons, want 4", got)
	}
	if app.Estimator.Configuration() != app.Configuration {
		t.Error("estimator should use the app configuration")
	}
}

func TestSetup_Errors(t *testing.T) {
	dir := t.TempDir()

	app := NewApp()
	app.ConfigFile = filepath.Join(dir, "missing.yaml")
	if err := app.setup(); err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected missing config error, got %v", err)
	}

	// Valid YAML, but polygon mode needs an init direction.
	app.ConfigFile = writeFile(t, dir, "nodir.yaml",
		strings.Replace(testConfigYAML, "initDirection: {x: -10, y: -10}\n", "", 1))
	err := app.setup()
	if err == nil || !strings.Contains(err.Error(), "invalid beacon configuration") {
		t.Errorf("expected invalid configuration error, got %v", err)
	}
}

func TestRunEstimate(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	out.Reset()
	cyclePath := writeFile(t, t.TempDir(), "cycle.json", testCycleJSON)

	if err := app.RunEstimate(cyclePath); err != nil {
		t.Fatalf("RunEstimate failed: %v", err)
	}

	var res locate.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not a JSON result: %v\n%s", err, out.String())
	}
	if res.State != locate.StateDone {
		t.Fatalf("state = %s, want done (%s)", res.State, res.Error)
	}
	if d := locate.Distance(res.Position, locate.Point{X: 7, Y: 7}); d > 0.15 {
		t.Errorf("position %s is %.3fm from (7, 7)", res.Position, d)
	}
	if len(res.Retained) != 2 {
		t.Errorf("retained %d candidates, want 2", len(res.Retained))
	}

	if _, ok := app.StateTracker.LastPosition(); !ok {
		t.Error("successful estimate should be recorded")
	}
	if _, err := os.Stat(app.StateCache); err != nil {
		t.Errorf("position cache not written: %v", err)
	}
}

func TestRunEstimate_NoConsensus(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	out.Reset()
	cyclePath := writeFile(t, t.TempDir(), "cycle.json", noConsensusCycleJSON)

	// No estimate this cycle is not an error for the CLI.
	if err := app.RunEstimate(cyclePath); err != nil {
		t.Fatalf("RunEstimate failed: %v", err)
	}
	if !strings.Contains(out.String(), `"state": "failed"`) {
		t.Errorf("expected failed state in output, got %s", out.String())
	}
	if !strings.Contains(out.String(), "no good candidates") {
		t.Errorf("expected error message in output, got %s", out.String())
	}
	if _, ok := app.StateTracker.LastPosition(); ok {
		t.Error("failed cycle should not set a position")
	}
}

func TestRunEstimate_Errors(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	dir := t.TempDir()

	unknown := writeFile(t, dir, "unknown.json", `{"readings":[{"color":"red","bearing":1},{"color":"white","bearing":2}]}`)
	err := app.RunEstimate(unknown)
	if err == nil || !locate.IsConfigurationError(err) {
		t.Errorf("expected configuration error for unregistered color, got %v", err)
	}

	if err := app.RunEstimate(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing cycle file")
	}

	bad := writeFile(t, dir, "bad.json", "{")
	if err := app.RunEstimate(bad); err == nil || !strings.Contains(err.Error(), "decoding cycle") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestRunEstimate_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testCycleJSON))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := newTestApp(t, &out)
	out.Reset()

	if err := app.RunEstimate(srv.URL + "/api/cycle"); err != nil {
		t.Fatalf("RunEstimate failed: %v", err)
	}
	if !strings.Contains(out.String(), `"state": "done"`) {
		t.Errorf("expected done state in output, got %s", out.String())
	}
}

func TestRunEstimate_URLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	app := newTestApp(t, &bytes.Buffer{})
	err := app.RunEstimate(srv.URL)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("expected 404 error, got %v", err)
	}
}

func TestRunRender(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	dir := t.TempDir()

	app.EstimateFile = writeFile(t, dir, "cycle.json", testCycleJSON)
	app.OutputFile = filepath.Join(dir, "map.png")
	app.RenderFormat = "png"

	if err := app.RunRender(); err != nil {
		t.Fatalf("RunRender failed: %v", err)
	}
	if !strings.Contains(out.String(), "Map written to "+app.OutputFile) {
		t.Errorf("expected confirmation, got %s", out.String())
	}

	f, err := os.Open(app.OutputFile)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestRunRender_SVGWithoutEstimate(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	app.OutputFile = filepath.Join(t.TempDir(), "map.svg")

	if err := app.RunRender(); err != nil {
		t.Fatalf("RunRender failed: %v", err)
	}
	data, err := os.ReadFile(app.OutputFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("expected SVG output")
	}
}

func TestRunRender_UnknownFormat(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	app.OutputFile = filepath.Join(t.TempDir(), "map.gif")
	app.RenderFormat = "gif"

	if err := app.RunRender(); err == nil {
		t.Error("expected error for unknown format")
	}
}
