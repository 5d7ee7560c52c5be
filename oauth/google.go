package oauth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// NewGoogle builds the primary login provider. Only profile and email
// scopes are requested; no offline access since we never call Google on
// the user's behalf after login.
func NewGoogle(clientID, clientSecret, redirectURL string) *Service {
	return NewService("google", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"profile", "email"},
	}, googleUserInfoURL)
}

// NewYouTube builds the linkable publishing provider. Offline access and
// forced re-consent make Google issue a refresh token even when the user
// has approved the app before.
func NewYouTube(clientID, clientSecret, redirectURL string) *Service {
	return NewService("youtube", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/youtube.readonly",
			"https://www.googleapis.com/auth/youtube.upload",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/userinfo.email",
		},
	}, googleUserInfoURL,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}
