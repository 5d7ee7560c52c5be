package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/shortshub/shortshub/config"
	"github.com/shortshub/shortshub/db"
	"github.com/shortshub/shortshub/oauth"
	"github.com/shortshub/shortshub/service/account"
	"github.com/shortshub/shortshub/service/refresh"
	"github.com/shortshub/shortshub/service/social"
	"github.com/shortshub/shortshub/session"
)

type application struct {
	database       *db.DB
	sessionManager *session.Manager
	accountService *account.Service
	googleAuth     oauth.Provider
	youtubeLink    *social.Service
	refresher      *refresh.Refresher
	clientURL      string
}

func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func main() {
	config.Load()

	// create data folder if not exists with proper perms
	os.MkdirAll("./data", 0755)

	database, err := db.New(viper.GetString("db.path"))
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	sessionManager := session.NewManager(
		viper.GetString("session.secret"),
		viper.GetString("server.env") == "production",
	)

	googleAuth := oauth.NewGoogle(
		viper.GetString("google.client_id"),
		viper.GetString("google.client_secret"),
		viper.GetString("callback.google"),
	)

	youtubeProvider := oauth.NewYouTube(
		viper.GetString("youtube.client_id"),
		viper.GetString("youtube.client_secret"),
		viper.GetString("callback.youtube"),
	)

	app := &application{
		database:       database,
		sessionManager: sessionManager,
		accountService: account.NewAccountService(database),
		googleAuth:     googleAuth,
		youtubeLink:    social.NewSocialService(database, youtubeProvider),
		refresher:      refresh.NewRefresher(database, youtubeProvider),
		clientURL:      viper.GetString("client.url"),
	}

	serverAddr := fmt.Sprintf("%s:%s", viper.GetString("server.host"), viper.GetString("server.port"))
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	fmt.Printf("Server running at: http://%s\n", serverAddr)
	log.Fatal(server.ListenAndServe())
}
