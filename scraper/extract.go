package scraper

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"propwatch/models"
)

// nextDataEnvelope is the slice of the embedded page state we care about.
type nextDataEnvelope struct {
	Props struct {
		PageProps struct {
			Properties []models.RawPayload `json:"properties"`
		} `json:"pageProps"`
	} `json:"props"`
}

// ExtractPayloads pulls the property records out of a fetched results page.
// Listing sites ship their page state as a JSON blob in a script tag
// (#__NEXT_DATA__); everything else in the document is noise.
func ExtractPayloads(page []byte) ([]models.RawPayload, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, pageErr(ErrKindParse, "", "parse html: %w", err)
	}

	sel := doc.Find(`script#__NEXT_DATA__`)
	if sel.Length() == 0 {
		return nil, pageErr(ErrKindParse, "", "__NEXT_DATA__ not found")
	}

	raw := strings.TrimSpace(sel.First().Text())
	if raw == "" {
		return nil, pageErr(ErrKindParse, "", "__NEXT_DATA__ is empty")
	}

	var envelope nextDataEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, pageErr(ErrKindParse, "", "decode page state: %w", err)
	}

	return envelope.Props.PageProps.Properties, nil
}
