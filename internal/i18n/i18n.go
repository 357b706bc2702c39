// Package i18n holds the display-string catalog and locale matching.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the locales with translations. English is the fallback.
var Supported = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
}

var matcher = language.NewMatcher(Supported)

var translations = map[language.Tag]map[string]string{
	language.French: {
		"Blocks":                       "Blocs",
		"Accounts":                     "Comptes",
		"Transactions":                 "Transactions",
		"List all blocks.":             "Liste de tous les blocs.",
		"List all accounts.":           "Liste de tous les comptes.",
		"List all transactions.":       "Liste de toutes les transactions.",
		"Blocks (Time)":                "Blocs (temps)",
		"Blocks (Topoheight)":          "Blocs (topoheight)",
		"Market History (Time)":        "Historique du marché (temps)",
		"Exchange History (Time)":      "Historique d'échange (temps)",
		"Supply Emission (Simulation)": "Émission de l'offre (simulation)",
		"Transactions (Time)":          "Transactions (temps)",
		"Total Miners (Time)":          "Mineurs (temps)",
		"Miners Blocks (Time)":         "Blocs des mineurs (temps)",
		"Total Accounts (Time)":        "Comptes (temps)",
		"Active Accounts (Time)":       "Comptes actifs (temps)",
		"Account Transactions (Time)":  "Transactions des comptes (temps)",
		"Market Tickers (Time)":        "Cours du marché (temps)",
		"Period (Time)":                "Période (temps)",
		"Period (Unit)":                "Période (unité)",
		"Asset":                        "Actif",
		"Exchange":                     "Plateforme",
		"Time":                         "Temps",
		"Year":                         "Année",
		"Hash":                         "Hash",
		"Miner":                        "Mineur",
		"Supply":                       "Offre",
		"Circulating Supply":           "Offre en circulation",
		"Hash Rate":                    "Taux de hachage",
		"Price & Volume":               "Prix et volume",
		"1 minute":                     "1 minute",
		"15 minutes":                   "15 minutes",
		"1 hour":                       "1 heure",
		"4 hours":                      "4 heures",
		"1 day":                        "1 jour",
		"1 week":                       "1 semaine",
		"1 month":                      "1 mois",
		"3 months":                     "3 mois",
		"6 months":                     "6 mois",
		"1 year":                       "1 an",
		"All":                          "Tous",
		"Table":                        "Tableau",
		"Chart":                        "Graphique",
		"Area":                         "Aire",
		"Candlestick":                  "Chandelier",
		"Histogram":                    "Histogramme",
		"Line":                         "Ligne",

		"Circulating supply from start to end.": "Offre en circulation du début à la fin.",
	},
	language.Spanish: {
		"Blocks":                       "Bloques",
		"Accounts":                     "Cuentas",
		"Transactions":                 "Transacciones",
		"List all blocks.":             "Lista de todos los bloques.",
		"List all accounts.":           "Lista de todas las cuentas.",
		"List all transactions.":       "Lista de todas las transacciones.",
		"Blocks (Time)":                "Bloques (tiempo)",
		"Blocks (Topoheight)":          "Bloques (topoheight)",
		"Market History (Time)":        "Historial de mercado (tiempo)",
		"Exchange History (Time)":      "Historial de exchange (tiempo)",
		"Supply Emission (Simulation)": "Emisión de suministro (simulación)",
		"Transactions (Time)":          "Transacciones (tiempo)",
		"Total Miners (Time)":          "Mineros (tiempo)",
		"Miners Blocks (Time)":         "Bloques de mineros (tiempo)",
		"Total Accounts (Time)":        "Cuentas (tiempo)",
		"Active Accounts (Time)":       "Cuentas activas (tiempo)",
		"Account Transactions (Time)":  "Transacciones de cuentas (tiempo)",
		"Market Tickers (Time)":        "Cotizaciones (tiempo)",
		"Period (Time)":                "Periodo (tiempo)",
		"Period (Unit)":                "Periodo (unidad)",
		"Asset":                        "Activo",
		"Time":                         "Tiempo",
		"Year":                         "Año",
		"Miner":                        "Minero",
		"Supply":                       "Suministro",
		"All":                          "Todos",
		"Table":                        "Tabla",
		"Chart":                        "Gráfico",
	},
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			// Keys are literal strings without format verbs.
			_ = b.SetString(tag, key, msg)
		}
	}
	return b
}

// Match picks the best supported locale for an Accept-Language header or
// a plain tag such as "fr".
func Match(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx]
}

// Printer returns a message printer for the locale.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// T translates a display string. Untranslated strings are returned as-is.
func T(p *message.Printer, key string) string {
	if p == nil {
		return key
	}
	return p.Sprintf(key)
}
