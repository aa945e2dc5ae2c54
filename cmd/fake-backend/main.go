package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/raine/outfit-finder/internal/fakebackend"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	polls := flag.Int("polls", 2, "Number of processing responses before a job settles")
	fail := flag.String("fail", "", "Fail every job with this reason")
	maxSize := flag.Int64("max-size", fakebackend.DefaultMaxUploadSize, "Largest accepted upload in bytes")
	debug := flag.Bool("debug", false, "Log every request")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	scenario := fakebackend.Scenario{
		ProcessingPolls: *polls,
		Items:           sampleItems(),
	}
	if *fail != "" {
		scenario.Fail = true
		scenario.FailReason = *fail
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fakebackend.New(scenario).WithMaxUploadSize(*maxSize).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", *addr).Int("polls", *polls).Int64("maxSize", *maxSize).Msg("fake analysis backend listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("fake analysis backend stopped")
}

func sampleItems() []analysis.DetectedItemPayload {
	return []analysis.DetectedItemPayload{
		{
			ItemID:      "item-1",
			Category:    "Jacket",
			Color:       "navy",
			Style:       "casual",
			Description: "Navy bomber jacket",
			MatchedProducts: []analysis.ProductPayload{
				{ID: "p-101", ProductID: "BMB-001", Name: "Classic Bomber", Category: "Jacket", Brand: "Northline", Price: 89.5, ShopURL: "https://shop.example.com/p/bmb-001", Tags: []string{"bomber", "navy"}},
				{ID: "p-102", ProductID: "BMB-014", Name: "Lightweight Bomber", Category: "Jacket", Brand: "Urbanist", Price: 59.99, ShopURL: "https://shop.example.com/p/bmb-014", Tags: []string{"bomber"}},
				{ID: "p-103", ProductID: "BMB-020", Name: "Padded Flight Jacket", Category: "Jacket", Brand: "Aero", Price: 120, ShopURL: "https://shop.example.com/p/bmb-020"},
			},
		},
		{
			ItemID:      "item-2",
			Category:    "Jeans",
			Color:       "blue",
			Style:       "slim",
			Description: "Slim fit blue jeans",
			MatchedProducts: []analysis.ProductPayload{
				{ID: "p-201", ProductID: "JN-301", Name: "Slim Denim", Category: "Jeans", Brand: "Indigo Co", Price: 45, ShopURL: "https://shop.example.com/p/jn-301"},
				{ID: "p-202", ProductID: "JN-305", Name: "Stretch Slim Jeans", Category: "Jeans", Brand: "Denimworks", Price: 39.9, ShopURL: "https://shop.example.com/p/jn-305"},
			},
		},
	}
}
