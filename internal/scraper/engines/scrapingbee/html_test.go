package scrapingbee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<!DOCTYPE html>
<html>
<head><title>Recherche flipper</title><script>var x = 1;</script></head>
<body>
  <nav><a href="/">Accueil</a></nav>
  <main>
    <a href="/ad/flipper/2891001234">Flipper Godzilla Premium</a>
    <a href="/ad/flipper/2891005678">Flipper Attack From Mars</a>
    <a href="/ad/flipper/2891001234">Flipper Godzilla Premium (photo)</a>
    <a href="https://www.leboncoin.fr/ad/flipper/2891009999">Flipper Medieval Madness</a>
    <a href="">vide</a>
  </main>
  <footer><a href="/conditions">CGU</a></footer>
</body>
</html>`

func TestExtractLinks(t *testing.T) {
	links, err := ExtractLinks(searchPage, "https://www.leboncoin.fr")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.leboncoin.fr/",
		"https://www.leboncoin.fr/ad/flipper/2891001234",
		"https://www.leboncoin.fr/ad/flipper/2891005678",
		"https://www.leboncoin.fr/ad/flipper/2891009999",
		"https://www.leboncoin.fr/conditions",
	}, links)
}

func TestExtractLinksWithoutBaseKeepsRelativeHrefs(t *testing.T) {
	links, err := ExtractLinks(`<a href="/ad/flipper/1">x</a>`, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/ad/flipper/1"}, links)
}

const adPage = `<!DOCTYPE html>
<html>
<head><script>dataLayer = [];</script><style>.x{}</style></head>
<body>
  <nav>Accueil &gt; Jeux &gt; Flippers</nav>
  <h1>Flipper Godzilla Premium</h1>
  <div class="price"><p>8 500 &euro;</p></div>
  <p>Vends flipper Godzilla Premium de 2021, tres bon etat.</p>
  <ul>
    <li>Marque : Stern</li>
    <li>Annee : 2021</li>
  </ul>
  <footer>Mentions legales</footer>
</body>
</html>`

func TestHTMLToMarkdown(t *testing.T) {
	markdown, err := HTMLToMarkdown(adPage)
	require.NoError(t, err)

	assert.Contains(t, markdown, "# Flipper Godzilla Premium")
	assert.Contains(t, markdown, "Vends flipper Godzilla Premium de 2021")
	assert.Contains(t, markdown, "- Marque : Stern")
	assert.Contains(t, markdown, "- Annee : 2021")

	// Script, style and chrome blocks are stripped.
	assert.NotContains(t, markdown, "dataLayer")
	assert.NotContains(t, markdown, ".x{}")
	assert.NotContains(t, markdown, "Accueil")
	assert.NotContains(t, markdown, "Mentions legales")
}

func TestHTMLToMarkdownDoesNotDuplicateNestedBlocks(t *testing.T) {
	markdown, err := HTMLToMarkdown(`<div><div><p>unique</p></div></div>`)
	require.NoError(t, err)
	assert.Equal(t, "unique", markdown)
}

func TestHTMLToMarkdownEmptyPage(t *testing.T) {
	markdown, err := HTMLToMarkdown("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, markdown)
}
