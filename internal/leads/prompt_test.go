package leads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemInstruction_TableContract(t *testing.T) {
	assert.Contains(t, SystemInstruction, "| Name | Phone | Email | Address | Website | Rating | Google Maps URL |")
	assert.Contains(t, SystemInstruction, "Do not output any text other than the table.")
}

func TestSystemInstruction_EnrichmentProtocol(t *testing.T) {
	// Two-phase protocol: listing lookup first, then a search per business.
	assert.Contains(t, SystemInstruction, "Search Maps")
	assert.Contains(t, SystemInstruction, "GOOGLE SEARCH")
}

func TestInitialPrompt(t *testing.T) {
	p := InitialPrompt("dentists in Tucson")
	assert.Contains(t, p, `"dentists in Tucson"`)
	assert.Contains(t, p, "googleMaps")
	assert.Contains(t, p, "| Name | Phone | Email | Address | Website | Rating | Google Maps URL |")
}

func TestMorePrompt_AsksForNewRowsOnly(t *testing.T) {
	p := MorePrompt()
	assert.Contains(t, p, "MORE unique businesses")
	assert.Contains(t, strings.ToLower(p), "not listed yet")
	assert.Contains(t, p, "same table format")
}
