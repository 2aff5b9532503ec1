package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kwv/ledlocate/locate"
)

// maxCycleBody bounds POST /estimate payloads
const maxCycleBody = 1 << 20

// registryView is the /registry response
type registryView struct {
	Mode          string            `json:"mode"`
	InitHeading   float64           `json:"initHeading"`
	InitDirection locate.Vector     `json:"initDirection"`
	Landmarks     []locate.Landmark `json:"landmarks"`
	Perimeter     []locate.Point    `json:"perimeter"`
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(a *App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		_, hasPosition := a.StateTracker.LastPosition()
		status := struct {
			Status        string    `json:"status"`
			Timestamp     time.Time `json:"timestamp"`
			HasPosition   bool      `json:"hasPosition"`
			MQTTConnected bool      `json:"mqttConnected"`
		}{
			Status:        "ok",
			Timestamp:     time.Now(),
			HasPosition:   hasPosition,
			MQTTConnected: a.MQTTClient != nil && a.MQTTClient.IsConnected(),
		}
		writeJSON(w, http.StatusOK, status)
	})

	mux.HandleFunc("/position", func(w http.ResponseWriter, r *http.Request) {
		last := a.StateTracker.Last()
		if last == nil {
			http.Error(w, "No position estimated yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, last)
	})

	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.StateTracker.History())
	})

	mux.HandleFunc("/registry", func(w http.ResponseWriter, r *http.Request) {
		cfg := a.Configuration
		writeJSON(w, http.StatusOK, registryView{
			Mode:          cfg.Mode().String(),
			InitHeading:   cfg.InitHeading(),
			InitDirection: cfg.InitDirection(),
			Landmarks:     cfg.Registry().Landmarks(),
			Perimeter:     cfg.Perimeter().Corners(),
		})
	})

	mux.Handle("/metrics", a.Metrics.Handler())

	mux.HandleFunc("/map.svg", func(w http.ResponseWriter, r *http.Request) {
		serveMap(w, a, "svg", "image/svg+xml")
	})
	mux.HandleFunc("/map.png", func(w http.ResponseWriter, r *http.Request) {
		serveMap(w, a, "png", "image/png")
	})
	mux.HandleFunc("/map.geojson", func(w http.ResponseWriter, r *http.Request) {
		serveMap(w, a, "geojson", "application/geo+json")
	})

	mux.HandleFunc("/estimate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "POST a JSON observation cycle", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCycleBody))
		if err != nil {
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}
		cycle, err := locate.DecodeCycle(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := a.Estimator.Estimate(*cycle)
		a.handleCycle(res, err)

		status := http.StatusOK
		switch {
		case err == nil:
		case locate.IsConfigurationError(err):
			status = http.StatusBadRequest
		default:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, res)
	})

	return mux
}

// serveMap renders the registry and the last cycle result
func serveMap(w http.ResponseWriter, a *App, format, contentType string) {
	var res *locate.Result
	if history := a.StateTracker.History(); len(history) > 0 {
		res = history[len(history)-1]
	}

	var buf bytes.Buffer
	if err := locate.RenderResult(&buf, a.Configuration, res, format, a.Config.GetRenderScale()); err != nil {
		log.Printf("Error rendering map %s: %v", format, err)
		http.Error(w, "Error rendering map", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing map %s: %v", format, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
