package main

import (
	"log"
	"net/http"

	"github.com/justinas/alice"

	"github.com/shortshub/shortshub/session"
)

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	// Password auth
	mux.HandleFunc("POST /api/auth/register", app.handleRegister)
	mux.HandleFunc("POST /api/auth/login", app.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", app.sessionManager.HandleLogout)
	mux.HandleFunc("GET /api/auth/me", session.WithAuth(app.handleMe, app.sessionManager))

	// Primary Google OAuth
	mux.HandleFunc("GET /api/auth/google", app.handleGoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", app.handleGoogleCallback)

	// YouTube account linking; the session must resolve before the
	// redirect to the consent screen is ever issued
	mux.HandleFunc("GET /api/social/youtube", session.WithAuth(app.handleYouTubeConnect, app.sessionManager))
	mux.HandleFunc("GET /api/social/youtube/callback", session.WithAuth(app.handleYouTubeCallback, app.sessionManager))
	mux.HandleFunc("GET /api/social/connections", session.WithAuth(app.handleConnections, app.sessionManager))
	mux.HandleFunc("DELETE /api/social/disconnect/{platform}", session.WithAuth(app.handleDisconnect, app.sessionManager))

	// Video metadata
	mux.HandleFunc("GET /api/videos", session.WithAuth(app.handleListVideos, app.sessionManager))
	mux.HandleFunc("POST /api/videos", session.WithAuth(app.handleCreateVideo, app.sessionManager))
	mux.HandleFunc("GET /api/videos/publish-targets", session.WithAuth(app.handlePublishTargets, app.sessionManager))

	standard := alice.New(logRequest)
	return standard.Then(mux)
}
