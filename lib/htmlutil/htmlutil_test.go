package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, src string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return d
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "The Phoenician Scheme", CleanText("  The   Phoenician\n\tScheme "))
}

func TestSelectText(t *testing.T) {
	d := doc(t, `<div><h1 class="headline-1"><span class="name">Parasite</span></h1></div>`)

	require.Equal(t, "Parasite", SelectText(d.Selection, "h1.headline-1 .name"))
	require.Equal(t, "", SelectText(d.Selection, ".missing"))
	require.Equal(t, "", SelectText(d.Selection, ""))
}

func TestSelectTextList(t *testing.T) {
	d := doc(t, `<ul><li class="g">Drama</li><li class="g">Thriller</li><li class="g">  </li></ul>`)

	require.Equal(t, []string{"Drama", "Thriller"}, SelectTextList(d.Selection, "li.g"))
	require.Nil(t, SelectTextList(d.Selection, ".missing"))
}

func TestSelectAttr(t *testing.T) {
	d := doc(t, `<div data-film-slug="parasite-2019"></div>`)

	require.Equal(t, "parasite-2019", SelectAttr(d.Selection, "div", "data-film-slug"))
	require.Equal(t, "", SelectAttr(d.Selection, "div", "data-nope"))
}

func TestFirstMatch(t *testing.T) {
	d := doc(t, `<div class="old" data-film-slug="a"></div><div class="old" data-film-slug="b"></div>`)

	t.Run("FallsThrough", func(t *testing.T) {
		found := FirstMatch(d.Selection, "div[data-item-slug]", "div[data-film-slug]")
		require.Equal(t, 2, found.Length())
	})
	t.Run("FirstWins", func(t *testing.T) {
		d := doc(t, `<div data-item-slug="new"></div><div data-film-slug="old"></div>`)
		found := FirstMatch(d.Selection, "div[data-item-slug]", "div[data-film-slug]")
		require.Equal(t, 1, found.Length())
		require.Equal(t, "new", found.AttrOr("data-item-slug", ""))
	})
	t.Run("NoMatch", func(t *testing.T) {
		found := FirstMatch(d.Selection, ".missing", "")
		require.Equal(t, 0, found.Length())
	})
}
