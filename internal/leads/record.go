package leads

import "strings"

// Business is one discovered business. Field values are display strings;
// an unknown value is the empty string, never a placeholder like "N/A".
// Records are immutable once emitted by the parser.
type Business struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Website string `json:"website"`
	Rating  string `json:"rating"`
	MapsURL string `json:"googleMapsUrl"`
}

// ResultSet is the accumulated businesses for one search, in discovery
// order. No two members share a signature; Merge is the only way it grows.
type ResultSet []Business

// Signature derives the identity key of a record: two businesses with the
// same case-insensitive, whitespace-collapsed name and address are the same
// business regardless of their other fields. Computed on demand rather than
// stored so it tracks normalization rule changes.
func Signature(b Business) string {
	return foldField(b.Name) + "|" + foldField(b.Address)
}

func foldField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
