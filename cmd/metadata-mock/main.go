package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

type movieEntry struct {
	Title    string   `json:"title"`
	Year     *int     `json:"year,omitempty"`
	Director *string  `json:"director,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	Plot     *string  `json:"plot,omitempty"`
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "mock-metadata.json", "path to mock data file")
		apiKey = flag.String("api-key", "", "require this X-API-Key when set")
		logReq = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal("read mock data", zap.Error(err))
	}

	var payload map[string]movieEntry
	if err := json.Unmarshal(file, &payload); err != nil {
		logger.Fatal("parse mock data", zap.Error(err))
	}
	// Lookups are case-insensitive on title.
	index := make(map[string]movieEntry, len(payload))
	for title, entry := range payload {
		index[strings.ToLower(title)] = entry
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/movies", func(w http.ResponseWriter, r *http.Request) {
		if *apiKey != "" && r.Header.Get("X-API-Key") != *apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		title := r.URL.Query().Get("title")
		if *logReq {
			logger.Info("lookup", zap.String("title", title), zap.String("year", r.URL.Query().Get("year")))
		}
		entry, ok := index[strings.ToLower(title)]
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	logger.Info("mock metadata service listening", zap.String("addr", addr), zap.Int("entries", len(index)))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
