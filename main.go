package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"wayfarer/cmd"
	"wayfarer/internal/genai"
	"wayfarer/internal/places"
	"wayfarer/internal/store"
	"wayfarer/internal/trip"
	"wayfarer/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

func main() {
	config, err := cmd.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	log := logrus.New()
	if f, err := os.OpenFile(config.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
		log.SetOutput(f)
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	var kv store.Store
	if config.RedisAddr != "" {
		redisStore, err := store.NewRedis(config.RedisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to redis: %v\n", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		kv = redisStore
	} else {
		sqliteStore, err := store.OpenSQLite(config.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		kv = sqliteStore
	}

	var gen trip.Generator
	if config.GeminiAPIKey != "" {
		gen = genai.NewClient(config.GeminiAPIKey)
	} else {
		fmt.Fprintln(os.Stderr, "ℹ  No GEMINI_API_KEY set — trip planning disabled")
	}

	var placesAPI trip.PlacesAPI
	if config.PlacesAPIKey != "" {
		placesAPI = places.NewClient(config.PlacesAPIKey)
	} else {
		fmt.Fprintln(os.Stderr, "ℹ  No GOOGLE_PLACES_API_KEY set — photo lookup disabled")
	}

	mgr := trip.NewManager(gen, placesAPI, store.NewTripStore(kv, log), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.StartAutosave(ctx)

	p := tea.NewProgram(ui.New(mgr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}

	mgr.Flush()
}
