package render

import (
	"fmt"
	"strings"

	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/models"
)

// HeroToken is the literal placeholder a draft body may carry for the hero
// image URL.
const HeroToken = "{{HERO_URL}}"

// Interpolated values are embedded verbatim. The draft comes from a
// controlled model call, so no HTML escaping happens here; html/template
// would rewrite the body markup.
const docTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>%[1]s</title>
  <meta name="description" content="%[2]s">
  <meta name="keywords" content="%[3]s">
</head>
<body>
  <article>
    <h1>%[1]s</h1>
    <figure><img src="%[4]s" alt="%[5]s"></figure>
    %[6]s
  </article>
</body>
</html>`

// Document renders the final HTML page for a draft. A HeroToken inside the
// body is substituted with heroURL before assembly. When related is empty
// the output carries no related-posts block at all.
func Document(draft models.Draft, heroURL string, related []models.RelatedLink) string {
	heroAlt := strings.TrimSpace(draft.HeroAlt)
	if heroAlt == "" {
		heroAlt = "blog hero"
	}

	body := strings.ReplaceAll(draft.BodyHTML, HeroToken, heroURL)
	if len(related) > 0 {
		body += relatedBlock(related)
	}

	return fmt.Sprintf(docTemplate,
		strings.TrimSpace(draft.Title),
		strings.TrimSpace(draft.MetaDescription),
		strings.TrimSpace(draft.Keywords),
		heroURL,
		heroAlt,
		body,
	)
}

// relatedBlock links earlier posts. Titles come back from the archive
// index, so they are sanitized before being embedded in markup.
func relatedBlock(related []models.RelatedLink) string {
	var b strings.Builder
	b.WriteString("\n    <nav class=\"related\">\n      <h2>Related Posts</h2>\n      <ul>\n")
	for _, l := range related {
		fmt.Fprintf(&b, "        <li><a href=\"%s.html\">%s</a></li>\n", l.Slug, helpers.SafeText(l.Title))
	}
	b.WriteString("      </ul>\n    </nav>")
	return b.String()
}
