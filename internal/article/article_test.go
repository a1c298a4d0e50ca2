package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-extract/internal/pdfblocks"
)

func TestFromBlocks(t *testing.T) {
	blocks := []pdfblocks.Block{
		{Page: 0, Content: "Defence and Peace Economics"},
		{Page: 0, Content: "To link to this article: https://doi.org/10.1080/10242694.2023.2187917 "},
		{Page: 1, Content: "ABSTRACT We study military spending."},
		{Page: 1, Content: "KEYWORDS  Military expenditure; growth "},
		{Page: 1, Content: "JEL CLASSIFICATION H56; O40"},
		{Page: 2, Content: "1. Introduction"},
	}

	md := FromBlocks("papers/dpe.pdf", blocks)

	assert.Equal(t, "papers/dpe.pdf", md.FilePath)
	assert.Equal(t, "10.1080/10242694.2023.2187917", md.DOI)
	assert.Equal(t, "Military expenditure; growth", md.Keywords)
	assert.Equal(t, "H56; O40", md.JEL)
	assert.Equal(t, []string{
		"ABSTRACT We study military spending.",
		"KEYWORDS  Military expenditure; growth ",
		"JEL CLASSIFICATION H56; O40",
		"1. Introduction",
	}, md.FullText)
}

func TestFromBlocksMissingFields(t *testing.T) {
	blocks := []pdfblocks.Block{
		{Page: 0, Content: "See https://doi.org/10.1/abc"},
		{Page: 0, Content: "To link to this article: http://example.com"},
		{Page: 2, Content: "KEYWORDS only counted on the second page"},
	}

	md := FromBlocks("x.pdf", blocks)

	assert.Empty(t, md.DOI)
	assert.Empty(t, md.Keywords)
	assert.Empty(t, md.JEL)
	assert.Equal(t, []string{"KEYWORDS only counted on the second page"}, md.FullText)
}

func TestFromBlocksFirstMatchWins(t *testing.T) {
	blocks := []pdfblocks.Block{
		{Page: 0, Content: "To link to this article: https://doi.org/10.1/first"},
		{Page: 0, Content: "To link to this article: https://doi.org/10.1/second"},
		{Page: 1, Content: "KEYWORDS a"},
		{Page: 1, Content: "KEYWORDS b"},
	}
	md := FromBlocks("x.pdf", blocks)
	assert.Equal(t, "10.1/first", md.DOI)
	assert.Equal(t, "a", md.Keywords)
}

func TestFromBlocksEmpty(t *testing.T) {
	md := FromBlocks("empty.pdf", nil)
	assert.NotNil(t, md.FullText)
	assert.Empty(t, md.Text())
}

func TestMetadataText(t *testing.T) {
	md := Metadata{FullText: []string{"first block", "second block"}}
	assert.Equal(t, "first block\nsecond block", md.Text())
}

func TestParseDOI(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"To link to this article: https://doi.org/10.1080/1", "10.1080/1"},
		{"To link to this article:  https://doi.org/10.1/x  ", "10.1/x"},
		{"To link https://doi.org/a https://doi.org/b", "b"},
		{"Link: https://doi.org/10.1/x", ""},
		{"To link to this article", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDOI(tt.line), tt.line)
	}
}

func TestProcessFileMissing(t *testing.T) {
	_, err := ProcessFile("testdata/missing.pdf")
	require.Error(t, err)
}
