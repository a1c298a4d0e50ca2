// Package article pulls bibliographic metadata out of the first pages of a
// journal article and collects its body text.
package article

import (
	"fmt"
	"strings"

	"article-extract/internal/pdfblocks"
)

const (
	doiLinePrefix  = "To link"
	doiURL         = "https://doi.org/"
	keywordsPrefix = "KEYWORDS"
	jelPrefix      = "JEL CLASSIFICATION"

	coverPage    = 0
	abstractPage = 1
)

// Metadata describes one article.
type Metadata struct {
	FilePath string   `json:"filepath"`
	DOI      string   `json:"doi,omitempty"`
	Keywords string   `json:"keywords,omitempty"`
	JEL      string   `json:"jel,omitempty"`
	FullText []string `json:"fulltext"`
}

// Text joins the body blocks for chunking.
func (m Metadata) Text() string {
	return strings.Join(m.FullText, "\n")
}

// ProcessFile extracts blocks from the PDF at path and reads its metadata.
func ProcessFile(path string) (Metadata, error) {
	blocks, err := pdfblocks.ExtractFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("extract blocks from %s: %w", path, err)
	}
	return FromBlocks(path, blocks), nil
}

// FromBlocks reads the DOI from the cover page and the keywords and JEL
// codes from the page after it. Every block from that page onward becomes
// full text.
func FromBlocks(path string, blocks []pdfblocks.Block) Metadata {
	md := Metadata{FilePath: path, FullText: []string{}}
	for _, b := range blocks {
		switch {
		case b.Page == coverPage:
			if md.DOI == "" {
				md.DOI = parseDOI(b.Content)
			}
			continue
		case b.Page == abstractPage:
			if md.Keywords == "" {
				md.Keywords = stripPrefix(b.Content, keywordsPrefix)
			}
			if md.JEL == "" {
				md.JEL = stripPrefix(b.Content, jelPrefix)
			}
		}
		md.FullText = append(md.FullText, b.Content)
	}
	return md
}

func parseDOI(line string) string {
	if !strings.HasPrefix(line, doiLinePrefix) || !strings.Contains(line, strings.TrimSuffix(doiURL, "/")) {
		return ""
	}
	i := strings.LastIndex(line, doiURL)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+len(doiURL):])
}

// stripPrefix returns line without prefix and surrounding whitespace, or ""
// when line does not start with prefix.
func stripPrefix(line, prefix string) string {
	if !strings.HasPrefix(line, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}
