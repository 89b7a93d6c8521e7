package cageots

import (
	"html"
	"strings"
)

const welcomeMarker = "Bienvenue sur votre page d'accueil."

type loginMarker struct {
	text   string
	reason AuthReason
}

// loginMarkers are checked in order, the first one found in the response
// decides the failure reason.
var loginMarkers = []loginMarker{
	{text: "Adresse e-mail requise", reason: AUTH_MISSING_EMAIL},
	{text: "Adresse e-mail invalide", reason: AUTH_INVALID_EMAIL},
	{text: "Mot de passe requis", reason: AUTH_MISSING_PASSWORD},
	{text: "mot de passe non valable", reason: AUTH_INVALID_PASSWORD},
	{text: "&Eacute;chec d&#039;authentification", reason: AUTH_FAILED},
	{text: "Échec d'authentification", reason: AUTH_FAILED},
}

// ClassifyLoginResponse inspects the body of the login response. The site
// answers 200 whether or not the login worked, so the content is all there is
// to go on. It returns true only if the welcome marker is present, otherwise
// it returns the reason of the first known error marker, or AUTH_UNKNOWN.
func ClassifyLoginResponse(body string) (AuthReason, string, bool) {
	unescaped := html.UnescapeString(body)
	contains := func(text string) bool {
		return strings.Contains(body, text) || strings.Contains(unescaped, text)
	}

	if contains(welcomeMarker) {
		return AUTH_UNKNOWN, welcomeMarker, true
	}
	for _, marker := range loginMarkers {
		if contains(marker.text) {
			return marker.reason, marker.text, false
		}
	}
	return AUTH_UNKNOWN, "", false
}
