package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

type translation struct {
	key string
	msg string
}

var translations = map[language.Tag][]translation{
	language.French: {
		{"Bad request", "Requête invalide"},
		{"Forbidden", "Accès interdit"},
		{"Page not found", "Page introuvable"},
		{"Internal server error", "Erreur interne du serveur"},
		{"Service unavailable", "Service indisponible"},
		{"Toggle theme", "Changer de thème"},
		{"Search", "Rechercher"},
		{"Back to the bibliography", "Retour à la bibliographie"},
		{"The server could not understand the request.", "Le serveur n'a pas pu comprendre la requête."},
		{"You do not have permission to access this page.", "Vous n'avez pas la permission d'accéder à cette page."},
		{"The requested page does not exist.", "La page demandée n'existe pas."},
		{"An unexpected error occurred. Please try again later.", "Une erreur inattendue s'est produite. Veuillez réessayer plus tard."},
		{"The bibliography is temporarily unavailable. Please retry later.", "La bibliographie est temporairement indisponible. Veuillez réessayer plus tard."},
	},
	language.German: {
		{"Bad request", "Ungültige Anfrage"},
		{"Forbidden", "Zugriff verweigert"},
		{"Page not found", "Seite nicht gefunden"},
		{"Internal server error", "Interner Serverfehler"},
		{"Service unavailable", "Dienst nicht verfügbar"},
		{"Toggle theme", "Design wechseln"},
		{"Search", "Suchen"},
		{"Back to the bibliography", "Zurück zur Bibliografie"},
		{"The server could not understand the request.", "Der Server konnte die Anfrage nicht verstehen."},
		{"You do not have permission to access this page.", "Sie haben keine Berechtigung für diese Seite."},
		{"The requested page does not exist.", "Die angeforderte Seite existiert nicht."},
		{"An unexpected error occurred. Please try again later.", "Ein unerwarteter Fehler ist aufgetreten. Bitte versuchen Sie es später erneut."},
		{"The bibliography is temporarily unavailable. Please retry later.", "Die Bibliografie ist vorübergehend nicht verfügbar. Bitte versuchen Sie es später erneut."},
	},
}

func register(b *catalog.Builder) error {
	for tag, entries := range translations {
		for _, t := range entries {
			if err := b.SetString(tag, t.key, t.msg); err != nil {
				return fmt.Errorf("register %s message %q: %w", tag, t.key, err)
			}
		}
	}
	return nil
}
