package list

import (
	"strings"
	"testing"

	"boxdharvest/lib/scrapers/letterboxd/selectors"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestPageUrl(t *testing.T) {
	require.Equal(t, "/dave/list/official-top-250-narrative-feature-films/", PageUrl("dave", "official-top-250-narrative-feature-films", 1))
	require.Equal(t, "/dave/list/official-top-250-narrative-feature-films/page/3/", PageUrl("dave", "official-top-250-narrative-feature-films", 3))
}

func TestExtractFilms(t *testing.T) {
	doc := parse(t, `
		<ul>
			<li data-owner-rating="9">
				<div data-item-slug="parasite-2019" data-item-name="Parasite"
					data-film-id="426406" data-item-link="/film/parasite-2019/">
					<img alt="Parasite poster">
				</div>
			</li>
			<li>
				<div data-item-slug="seven-samurai">
					<img alt="Seven Samurai">
				</div>
			</li>
		</ul>`)

	films := ExtractFilms(doc, selectors.Default(), 1)
	require.Len(t, films, 2)

	require.Equal(t, BasicFilm{
		Slug:         "parasite-2019",
		Name:         "Parasite",
		FilmId:       "426406",
		TargetLink:   "/film/parasite-2019/",
		OwnerRating:  "9",
		ListPosition: 1,
	}, films[0])

	// no data-item-name, the img alt fills in
	require.Equal(t, "seven-samurai", films[1].Slug)
	require.Equal(t, "Seven Samurai", films[1].Name)
	require.Equal(t, 2, films[1].ListPosition)
	require.Empty(t, films[1].OwnerRating)
}

func TestExtractFilmsStrategyFallback(t *testing.T) {
	// older markup, only data-film-* attributes present
	doc := parse(t, `
		<div data-film-slug="the-thing" data-film-name="The Thing"
			data-target-link="/film/the-thing/"></div>`)

	films := ExtractFilms(doc, selectors.Default(), 1)
	require.Len(t, films, 1)
	require.Equal(t, "the-thing", films[0].Slug)
	require.Equal(t, "The Thing", films[0].Name)
	require.Equal(t, "/film/the-thing/", films[0].TargetLink)
}

func TestExtractFilmsSkipsSluglessContainers(t *testing.T) {
	// a container matched via data-film-id but carrying no slug is dropped
	// without consuming a position
	doc := parse(t, `
		<div data-film-id="1" data-film-slug="first"></div>
		<div data-film-id="2"></div>
		<div data-film-id="3" data-film-slug="third"></div>`)

	films := ExtractFilms(doc, selectors.Default(), 5)
	require.Len(t, films, 2)
	require.Equal(t, 5, films[0].ListPosition)
	require.Equal(t, "first", films[0].Slug)
	require.Equal(t, 6, films[1].ListPosition)
	require.Equal(t, "third", films[1].Slug)
}

func TestExtractFilmsUnknownName(t *testing.T) {
	doc := parse(t, `<div data-item-slug="mystery-film"></div>`)

	films := ExtractFilms(doc, selectors.Default(), 1)
	require.Len(t, films, 1)
	require.Equal(t, "Unknown", films[0].Name)
}

func TestExtractFilmsEmptyPage(t *testing.T) {
	doc := parse(t, `<html><body><p>no films here</p></body></html>`)
	require.Empty(t, ExtractFilms(doc, selectors.Default(), 1))
}

func TestResolvePagination(t *testing.T) {
	t.Run("MultiPage", func(t *testing.T) {
		doc := parse(t, `
			<div class="paginate-pages">
				<a href="/dave/list/foo/page/2/">2</a>
				<a href="/dave/list/foo/page/3/">3</a>
				<a href="/dave/list/foo/page/7/">7</a>
			</div>`)
		require.Equal(t, 7, ResolvePagination(doc, selectors.Default()))
	})

	t.Run("NoPaginator", func(t *testing.T) {
		doc := parse(t, `<html><body></body></html>`)
		require.Equal(t, 1, ResolvePagination(doc, selectors.Default()))
	})

	t.Run("IgnoresNonPageLinks", func(t *testing.T) {
		doc := parse(t, `
			<div class="paginate-pages">
				<a href="/dave/list/foo/page/4/">4</a>
				<a href="/dave/list/foo/">first</a>
			</div>`)
		require.Equal(t, 4, ResolvePagination(doc, selectors.Default()))
	})
}

func TestCountPosters(t *testing.T) {
	doc := parse(t, `
		<div class="poster-container"></div>
		<div class="poster-container"></div>
		<div class="poster-container"></div>`)
	require.Equal(t, 3, CountPosters(doc, selectors.Default()))
}
