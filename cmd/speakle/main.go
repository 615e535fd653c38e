package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/config"
	"github.com/speakle/speakle/internal/detector"
	"github.com/speakle/speakle/internal/gesture"
	"github.com/speakle/speakle/internal/log"
	"github.com/speakle/speakle/internal/server"
	"github.com/speakle/speakle/internal/speech"
	"github.com/speakle/speakle/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.Log.Level)
	log.Info("Speakle - Smart Glove Backend", "config", cfg.Path)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Error("failed to initialize store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// A nil provider keeps the server up; speech endpoints then report the
	// missing key.
	var provider speech.Provider
	client, err := speech.NewOpenAI(
		speech.WithAPIKey(cfg.OpenAI.APIKey),
		speech.WithBaseURL(cfg.OpenAI.BaseURL),
		speech.WithTTSModel(cfg.OpenAI.TTSModel),
		speech.WithVoice(cfg.OpenAI.Voice),
		speech.WithSTTModel(cfg.OpenAI.STTModel),
		speech.WithChatModel(cfg.OpenAI.ChatModel, cfg.OpenAI.ChatMaxTokens),
		speech.WithSystemPrompt(cfg.OpenAI.SystemPrompt),
		speech.WithTimeout(cfg.OpenAI.Timeout()),
		speech.WithLogger(log.With("component", "speech")),
	)
	switch {
	case errors.Is(err, speech.ErrNoAPIKey):
		log.Warn("OPENAI_API_KEY not set, speech endpoints disabled")
	case err != nil:
		log.Error("failed to create speech client", "error", err)
		os.Exit(1)
	default:
		provider = client
		defer client.Close()
	}

	hub := server.NewHub(log.L())
	go hub.Run()
	defer hub.Close()

	a := app.New(app.Config{
		Gesture: gesture.Options{
			WindowSize:    cfg.Gesture.WindowSize,
			FlexThreshold: cfg.Gesture.FlexThreshold,
			MinVotes:      cfg.Gesture.MinVotes,
		},
		AggregateSize: cfg.Gesture.AggregateSize,
		Store:         st,
		Speech:        provider,
		Detector: detector.NewClient(detector.Config{
			URL:     cfg.Detector.URL,
			Timeout: cfg.Detector.Timeout(),
		}),
		Publisher:     hub,
		SpeechTimeout: cfg.OpenAI.Timeout(),
		Logger:        log.L(),
	})

	staticDir := cfg.HTTP.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		App:       a,
		Hub:       hub,
		Logger:    log.L(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.HTTP.Addr())
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case s := <-sig:
		log.Info("shutting down", "signal", s.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web" and "../../web" relative to the working
// directory, then ~/.speakle/web.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".speakle", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
