// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hearts/internal/auth"
	"github.com/jason-s-yu/hearts/internal/cache"
	"github.com/jason-s-yu/hearts/internal/database"
	"github.com/jason-s-yu/hearts/internal/handlers"
	"github.com/jason-s-yu/hearts/internal/hearts"
	"github.com/jason-s-yu/hearts/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := cache.ConnectRedis(); err != nil {
		// Gameplay works without the event queue; the historian just misses records.
		logger.Warnf("redis unavailable, match events will not be recorded: %v", err)
	}

	var deck hearts.DeckSource = hearts.RandomDeckSource{}
	if base := os.Getenv("DECK_API_URL"); base != "" {
		deck = &hearts.APIDeckSource{BaseURL: base}
	}

	srv := handlers.NewMatchServer(deck, database.MatchRecorder{})
	srv.StartSweeper(10 * time.Minute)

	mux := http.NewServeMux()
	mux.Handle("/match/create", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.CreateMatchHandler)))
	mux.Handle("/match/poll", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.PollHandler)))
	mux.Handle("/match/play", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.PlayCardHandler)))
	mux.Handle("/match/pass", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.SubmitPassHandler)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
