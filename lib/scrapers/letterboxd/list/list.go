// Package list extracts film entries and pagination from letterboxd list
// pages.
package list

import (
	"fmt"
	"strconv"
	"strings"

	"boxdharvest/lib/htmlutil"
	"boxdharvest/lib/scrapers/letterboxd/selectors"

	"github.com/PuerkitoBio/goquery"
)

// BasicFilm is one list entry as it appears on a catalog page, before any
// detail page has been visited.
type BasicFilm struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	FilmId      string `json:"film_id,omitempty"`
	TargetLink  string `json:"target_link,omitempty"`
	OwnerRating string `json:"owner_rating,omitempty"`
	// 1-based position within the overall list, not within the page
	ListPosition int    `json:"list_position"`
	SourcePage   int    `json:"source_page"`
	SourceList   string `json:"source_list,omitempty"`
}

// PageUrl builds the endpoint of one page of a user list. page 1 is the bare
// list url, later pages get the page/N/ suffix.
func PageUrl(owner, slug string, page int) string {
	if page <= 1 {
		return fmt.Sprintf("/%s/list/%s/", owner, slug)
	}
	return fmt.Sprintf("/%s/list/%s/page/%d/", owner, slug, page)
}

// ExtractFilms pulls every film container out of a list page document.
// container lookup walks the configured strategies in order and the first
// selector matching anything wins. containers with no resolvable slug are
// dropped and do not consume a position; startPosition seeds the 1-based
// position of the first kept film.
func ExtractFilms(doc *goquery.Document, sel selectors.Config, startPosition int) []BasicFilm {
	containers := htmlutil.FirstMatch(doc.Selection, sel.FilmList.ItemStrategies...)

	films := make([]BasicFilm, 0, containers.Length())
	position := startPosition
	containers.Each(func(_ int, container *goquery.Selection) {
		slug := containerSlug(container, sel.Attributes)
		if slug == "" {
			return
		}

		films = append(films, BasicFilm{
			Slug:         slug,
			Name:         containerName(container, sel),
			FilmId:       container.AttrOr(sel.Attributes.FilmId, ""),
			TargetLink:   containerTargetLink(container, sel.Attributes),
			OwnerRating:  containerOwnerRating(container, sel.Attributes),
			ListPosition: position,
		})
		position++
	})
	return films
}

func containerSlug(container *goquery.Selection, attrs selectors.Attributes) string {
	if slug, ok := container.Attr(attrs.ItemSlug); ok && slug != "" {
		return slug
	}
	return container.AttrOr(attrs.FilmSlug, "")
}

// name resolution order: data-item-name, the poster img's alt text, then
// data-film-name. entries resolving through none of them come back "Unknown"
// rather than dropping the film, a positioned slug is still worth keeping.
func containerName(container *goquery.Selection, sel selectors.Config) string {
	if name, ok := container.Attr(sel.Attributes.ItemName); ok && name != "" {
		return name
	}
	img := container.Find(sel.FilmList.FilmImg).First()
	if alt, ok := img.Attr(sel.Attributes.ImgAlt); ok && alt != "" {
		return htmlutil.CleanText(alt)
	}
	if name, ok := container.Attr(sel.Attributes.FilmName); ok && name != "" {
		return name
	}
	return "Unknown"
}

func containerTargetLink(container *goquery.Selection, attrs selectors.Attributes) string {
	if link, ok := container.Attr(attrs.ItemLink); ok && link != "" {
		return link
	}
	return container.AttrOr(attrs.TargetLink, "")
}

// the owner's star rating lives on the surrounding li, not the film div
func containerOwnerRating(container *goquery.Selection, attrs selectors.Attributes) string {
	return container.Closest("li").AttrOr(attrs.OwnerRating, "")
}

// ResolvePagination reads the total page count from a list page's paginator.
// the last page link holding a "page/" href names the final page; lists short
// enough to have no paginator are a single page.
func ResolvePagination(doc *goquery.Document, sel selectors.Config) int {
	pages := 1
	doc.Find(sel.Pagination.Container).
		Find(sel.Pagination.PageLinks).
		Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok || !strings.Contains(href, "page/") {
				return
			}
			trailing := strings.TrimSuffix(href[strings.LastIndex(href, "page/")+len("page/"):], "/")
			if n, err := strconv.Atoi(trailing); err == nil {
				pages = n
			}
		})
	return pages
}

// CountPosters counts poster containers on a page. the first page's count
// times the page total gives the upfront size estimate a progress bar needs.
func CountPosters(doc *goquery.Document, sel selectors.Config) int {
	return doc.Find(sel.FilmList.PosterCount).Length()
}
