package format

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestXEL(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{json.Number("123456789000"), "1,234.56789 XEL"},
		{int64(100000000), "1 XEL"},
		{"41234567890000001", "412,345,678.90000001 XEL"},
		{float64(-50000000), "-0.5 XEL"},
		{nil, ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, XEL(tt.in), "%v", tt.in)
	}
}

func TestDifficulty(t *testing.T) {
	assert.Equal(t, "1.5 GH/s", Difficulty(2.25e10))
	assert.Equal(t, "", Difficulty("n/a"))
}

func TestSize(t *testing.T) {
	assert.Equal(t, "1.5 kB", Size(1500))
	assert.Equal(t, "", Size(-1))
}

func TestNumber(t *testing.T) {
	p := message.NewPrinter(language.English)
	assert.Equal(t, "1,234,567.891", Number(p, 1234567.8912))
	assert.Equal(t, "5,760", Number(nil, json.Number("5760")))
	assert.Equal(t, "", Number(p, nil))
}

func TestTime(t *testing.T) {
	assert.Equal(t, "2024-04-23 00:00:00", Time("2024-04-23T00:00:00Z"))
	assert.Equal(t, "2024-04-23 00:00:00", Time(int64(1713830400)))
	assert.Equal(t, "2024-04-23 00:00:00", Time(int64(1713830400000)))
	assert.Equal(t, "", Time(nil))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "250ms", Duration(250))
	assert.Equal(t, "15.3s", Duration(15340))
	assert.Equal(t, "1m 5s", Duration(65000))
	assert.Equal(t, "1d 1h", Duration(90000000))
}

func TestPercentRaw(t *testing.T) {
	assert.Equal(t, "42.5%", Percent(42.5))
	assert.Equal(t, "", Raw(nil))
	assert.Equal(t, "xel:abc", Raw("xel:abc"))
	assert.Equal(t, "12", Raw(json.Number("12")))
}
