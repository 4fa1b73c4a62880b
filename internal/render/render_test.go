package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmill/draftmill/models"
)

func testDraft() models.Draft {
	return models.Draft{
		Title:           "Fed Holds Rates Steady",
		MetaDescription: "What the pause means for savers and markets.",
		Keywords:        "fed, rates, markets",
		HeroAlt:         "newspaper on a desk",
		BodyHTML:        `<section><p class="lede">The Fed held.</p><h2>Why It Matters</h2><p>Borrowing costs stay put.</p></section>`,
	}
}

func TestDocumentStructure(t *testing.T) {
	out := Document(testDraft(), "https://img.example.com/hero.png", nil)

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "Fed Holds Rates Steady", doc.Find("head title").Text())
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "What the pause means for savers and markets.", desc)
	keywords, _ := doc.Find(`meta[name="keywords"]`).Attr("content")
	assert.Equal(t, "fed, rates, markets", keywords)

	assert.Equal(t, "Fed Holds Rates Steady", doc.Find("article h1").Text())
	src, _ := doc.Find("article figure img").Attr("src")
	assert.Equal(t, "https://img.example.com/hero.png", src)
	alt, _ := doc.Find("article figure img").Attr("alt")
	assert.Equal(t, "newspaper on a desk", alt)
	assert.Equal(t, "Why It Matters", doc.Find("article h2").First().Text())
}

func TestDocumentSubstitutesHeroToken(t *testing.T) {
	draft := testDraft()
	draft.BodyHTML = `<section><figure><img src="{{HERO_URL}}" alt="chart"></figure><p>Body.</p></section>`

	out := Document(draft, "https://img.example.com/hero.png", nil)

	assert.NotContains(t, out, HeroToken)
	assert.Equal(t, 2, strings.Count(out, "https://img.example.com/hero.png"),
		"template figure and body token both point at the hero")
}

func TestDocumentDoesNotEscape(t *testing.T) {
	draft := testDraft()
	draft.Title = "Stocks & Bonds <Today>"

	out := Document(draft, "https://img.example.com/h.png", nil)
	assert.Contains(t, out, "<h1>Stocks & Bonds <Today></h1>")
	assert.Contains(t, out, "<title>Stocks & Bonds <Today></title>")
}

func TestDocumentDefaultHeroAlt(t *testing.T) {
	draft := testDraft()
	draft.HeroAlt = ""

	out := Document(draft, "https://img.example.com/h.png", nil)
	assert.Contains(t, out, `alt="blog hero"`)
}

func TestDocumentRelatedLinks(t *testing.T) {
	related := []models.RelatedLink{
		{Title: "Last Week in Markets", Slug: "2025-08-05-last-week-in-markets"},
		{Title: "Rate Primer", Slug: "2025-07-30-rate-primer"},
	}

	out := Document(testDraft(), "https://img.example.com/h.png", related)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	links := doc.Find("nav.related ul li a")
	require.Equal(t, 2, links.Length())
	href, _ := links.First().Attr("href")
	assert.Equal(t, "2025-08-05-last-week-in-markets.html", href)
	assert.Equal(t, "Last Week in Markets", links.First().Text())
}

func TestDocumentNoRelatedBlockWhenEmpty(t *testing.T) {
	withNil := Document(testDraft(), "https://img.example.com/h.png", nil)
	withEmpty := Document(testDraft(), "https://img.example.com/h.png", []models.RelatedLink{})

	assert.Equal(t, withNil, withEmpty)
	assert.NotContains(t, withNil, "nav")
}
