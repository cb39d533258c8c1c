package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCell_Placeholders(t *testing.T) {
	assert.Equal(t, "", NormalizeCell(""))
	assert.Equal(t, "", NormalizeCell("N/A"))
	assert.Equal(t, "", NormalizeCell("n/a"))
	assert.Equal(t, "", NormalizeCell("-"))
}

func TestNormalizeCell_Passthrough(t *testing.T) {
	assert.Equal(t, "Joe's Plumbing", NormalizeCell("Joe's Plumbing"))
	// Only placeholder collapsing: no trimming, no case changes.
	assert.Equal(t, " N/A ", NormalizeCell(" N/A "))
	assert.Equal(t, "N/a", NormalizeCell("N/a"))
	assert.Equal(t, "--", NormalizeCell("--"))
}

func TestNormalizeURL_MarkdownLink(t *testing.T) {
	assert.Equal(t, "https://acme.com", NormalizeURL("[Acme](https://acme.com)"))
	assert.Equal(t, "https://maps.example/1", NormalizeURL("[View on Maps](https://maps.example/1)"))
}

func TestNormalizeURL_AngleBrackets(t *testing.T) {
	assert.Equal(t, "https://acme.com", NormalizeURL("<https://acme.com>"))
}

func TestNormalizeURL_BareURL(t *testing.T) {
	assert.Equal(t, "www.acme.com", NormalizeURL("www.acme.com"))
	assert.Equal(t, "http://acme.com", NormalizeURL("http://acme.com"))
	assert.Equal(t, "https://acme.com", NormalizeURL("https://acme.com"))
}

func TestNormalizeURL_BestEffortPassthrough(t *testing.T) {
	// A bare domain without a scheme still passes through unchanged.
	assert.Equal(t, "acme.com", NormalizeURL("acme.com"))
}

func TestNormalizeURL_Placeholder(t *testing.T) {
	assert.Equal(t, "", NormalizeURL("N/A"))
	assert.Equal(t, "", NormalizeURL("-"))
	assert.Equal(t, "", NormalizeURL(""))
}
