package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	assert.Equal(t, language.French, Match("fr-CH,fr;q=0.9,en;q=0.8"))
	assert.Equal(t, language.Spanish, Match("es"))
	assert.Equal(t, language.English, Match("de"))
	assert.Equal(t, language.English, Match(""))
	assert.Equal(t, language.English, Match(";;;"))
}

func TestT(t *testing.T) {
	assert.Equal(t, "Blocs", T(Printer(language.French), "Blocks"))
	assert.Equal(t, "Bloques", T(Printer(language.Spanish), "Blocks"))
	assert.Equal(t, "Blocks", T(Printer(language.English), "Blocks"))

	// Spanish has no entry for this one.
	assert.Equal(t, "Exchange", T(Printer(language.Spanish), "Exchange"))
	assert.Equal(t, "Blocks", T(nil, "Blocks"))
}
