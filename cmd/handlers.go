package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shortshub/shortshub/db"
	"github.com/shortshub/shortshub/models"
	"github.com/shortshub/shortshub/oauth"
	"github.com/shortshub/shortshub/service/account"
	"github.com/shortshub/shortshub/service/refresh"
	"github.com/shortshub/shortshub/service/social"
	"github.com/shortshub/shortshub/session"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *application) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body."})
		return
	}

	user, err := app.accountService.Register(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrMissingFields):
			jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required."})
		case errors.Is(err, db.ErrDuplicateUser):
			jsonResponse(w, http.StatusConflict, map[string]string{"error": "Username already exists."})
		default:
			log.Printf("Error registering user: %v", err)
			jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error during registration."})
		}
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"id": user.ID, "username": user.Username})
}

func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body."})
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required."})
		return
	}

	user, err := app.accountService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials."})
			return
		}
		log.Printf("Error logging in user: %v", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error during login."})
		return
	}

	credential, err := app.sessionManager.CreateToken(user.ID)
	if err != nil {
		log.Printf("Error creating session token: %v", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error during login."})
		return
	}

	app.sessionManager.SetSessionCookie(w, credential)
	jsonResponse(w, http.StatusOK, map[string]any{"id": user.ID, "username": user.Username})
}

func (app *application) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	user, err := app.database.GetUserByID(userID)
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error."})
		return
	}
	if user == nil {
		jsonResponse(w, http.StatusNotFound, map[string]string{"error": "User not found."})
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// --- Primary Google OAuth ---

func (app *application) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := oauth.NewState(w)
	http.Redirect(w, r, app.googleAuth.AuthCodeURL(state), http.StatusSeeOther)
}

func (app *application) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Printf("Google login denied: %s", errParam)
		http.Redirect(w, r, app.clientURL+"/login", http.StatusSeeOther)
		return
	}

	if !oauth.VerifyState(r) {
		http.Redirect(w, r, app.clientURL+"/login", http.StatusSeeOther)
		return
	}
	oauth.ClearState(w)

	token, err := app.googleAuth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("Google code exchange failed: %v", err)
		http.Redirect(w, r, app.clientURL+"/login", http.StatusSeeOther)
		return
	}

	profile, err := app.googleAuth.FetchProfile(r.Context(), token)
	if err != nil {
		log.Printf("Google profile fetch failed: %v", err)
		http.Redirect(w, r, app.clientURL+"/login", http.StatusSeeOther)
		return
	}

	user, err := app.accountService.LoginWithProfile(profile)
	if err != nil {
		if errors.Is(err, account.ErrNoEmail) {
			jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "No email found in Google profile."})
			return
		}
		log.Printf("Google login failed: %v", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error during login."})
		return
	}

	credential, err := app.sessionManager.CreateToken(user.ID)
	if err != nil {
		log.Printf("Error creating session token: %v", err)
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error during login."})
		return
	}

	app.sessionManager.SetSessionCookie(w, credential)
	http.Redirect(w, r, app.clientURL, http.StatusSeeOther)
}

// --- YouTube account linking ---

func (app *application) handleYouTubeConnect(w http.ResponseWriter, r *http.Request) {
	app.youtubeLink.Start(w, r)
}

func (app *application) handleYouTubeCallback(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	oauth.ClearState(w)

	_, err := app.youtubeLink.HandleCallback(r.Context(), r, userID)
	if err != nil {
		// the link attempt failed; say so rather than pretending it worked
		switch {
		case errors.Is(err, social.ErrConsentDenied):
			log.Printf("YouTube consent denied for user %d", userID)
		default:
			log.Printf("YouTube linking failed for user %d: %v", userID, err)
		}
		http.Redirect(w, r, app.clientURL+"?link=failed", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, app.clientURL+"#settings", http.StatusSeeOther)
}

func (app *application) handleConnections(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	accounts, err := app.database.ListLinkedAccounts(userID)
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error."})
		return
	}

	connections := map[string]bool{"youtube": false}
	for _, acct := range accounts {
		connections[acct.Provider] = true
	}

	jsonResponse(w, http.StatusOK, map[string]any{"connections": connections})
}

func (app *application) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	platform := r.PathValue("platform")
	if platform != app.youtubeLink.Provider() {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid platform"})
		return
	}

	if err := app.youtubeLink.Disconnect(userID); err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error."})
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":   platform + " disconnected successfully",
		"connected": false,
	})
}

// --- Video metadata ---

type videoView struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl"`
	Type        string `json:"type"`
}

func (app *application) handleListVideos(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	videos, err := app.database.ListVideos(userID)
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error while fetching videos."})
		return
	}

	views := make([]videoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, videoView{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			VideoURL:    v.StorageURL,
			Type:        v.Source,
		})
	}

	jsonResponse(w, http.StatusOK, views)
}

func (app *application) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		VideoURL    string `json:"videoUrl"`
		Source      string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body."})
		return
	}

	if req.Title == "" || req.VideoURL == "" {
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "Missing title or video URL."})
		return
	}

	if req.Source == "" {
		req.Source = "uploaded"
	}

	id, err := app.database.CreateVideo(&models.Video{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		StorageURL:  req.VideoURL,
		Source:      req.Source,
	})
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save video."})
		return
	}

	jsonResponse(w, http.StatusCreated, videoView{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
		Type:        req.Source,
	})
}

type publishTarget struct {
	Provider             string `json:"provider"`
	DisplayName          string `json:"displayName"`
	Ready                bool   `json:"ready"`
	NeedsReauthorization bool   `json:"needsReauthorization"`
}

// handlePublishTargets reports which linked providers currently hold a
// usable access token. A target that cannot be refreshed needs the user
// to re-run the linking flow.
func (app *application) handlePublishTargets(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.GetUserID(r.Context())

	accounts, err := app.database.ListLinkedAccounts(userID)
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Server error."})
		return
	}

	targets := make([]publishTarget, 0, len(accounts))
	for _, acct := range accounts {
		target := publishTarget{
			Provider:    acct.Provider,
			DisplayName: acct.DisplayName,
		}

		_, err := app.refresher.EnsureFreshToken(r.Context(), userID, acct.Provider)
		switch {
		case err == nil:
			target.Ready = true
		case errors.Is(err, refresh.ErrNeedsReauthorization):
			target.NeedsReauthorization = true
		default:
			log.Printf("Error checking publish target %s for user %d: %v", acct.Provider, userID, err)
		}

		targets = append(targets, target)
	}

	jsonResponse(w, http.StatusOK, targets)
}
