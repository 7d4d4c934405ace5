// Package film extracts structured details from letterboxd film pages and
// their csi rating/stat fragments.
package film

import (
	"fmt"
	"strconv"
	"strings"

	"boxdharvest/lib/htmlutil"
	"boxdharvest/lib/scrapers/letterboxd/selectors"

	"github.com/PuerkitoBio/goquery"
)

const castLimit = 10

// the site files genres and themes under the same tab. only entries in this
// closed vocabulary are genres, everything else on the tab is a theme.
var genreVocabulary = map[string]string{
	"action":          "Action",
	"adventure":       "Adventure",
	"animation":       "Animation",
	"comedy":          "Comedy",
	"crime":           "Crime",
	"documentary":     "Documentary",
	"drama":           "Drama",
	"family":          "Family",
	"fantasy":         "Fantasy",
	"history":         "History",
	"horror":          "Horror",
	"music":           "Music",
	"mystery":         "Mystery",
	"romance":         "Romance",
	"science fiction": "Science Fiction",
	"thriller":        "Thriller",
	"tv movie":        "TV Movie",
	"war":             "War",
	"western":         "Western",
}

// RatingBucket is one bar of the ratings histogram.
type RatingBucket struct {
	Count      int64 `json:"count"`
	Percentage int   `json:"percentage,omitempty"`
}

// Ratings is the content of a film's ratings-summary csi fragment.
type Ratings struct {
	AverageRating float64 `json:"average_rating,omitempty"`
	TotalRatings  int64   `json:"total_ratings,omitempty"`
	Fans          int64   `json:"fans,omitempty"`
	// histogram buckets keyed stars_0.5 through stars_5
	Breakdown map[string]RatingBucket `json:"rating_breakdown,omitempty"`
}

// StatCount holds both spellings of one statistic: the exact count from the
// tooltip and the abbreviated one from the visible label.
type StatCount struct {
	Exact       int64 `json:"exact,omitempty"`
	Approximate int64 `json:"approximate,omitempty"`
}

// Value prefers the exact count, falling back to the approximate one.
func (s StatCount) Value() int64 {
	if s.Exact != 0 {
		return s.Exact
	}
	return s.Approximate
}

// Stats is the content of a film's stats csi fragment.
type Stats struct {
	Watches         StatCount `json:"watches,omitempty"`
	ListAppearances StatCount `json:"list_appearances,omitempty"`
	Likes           StatCount `json:"likes,omitempty"`
}

// Details is everything harvested about a single film. fields a page didn't
// yield stay at their zero value.
type Details struct {
	Title           string   `json:"title,omitempty"`
	Year            int      `json:"year,omitempty"`
	Directors       []string `json:"directors,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Themes          []string `json:"themes,omitempty"`
	Countries       []string `json:"countries,omitempty"`
	PrimaryLanguage string   `json:"primary_language,omitempty"`
	OtherLanguages  []string `json:"other_languages,omitempty"`
	Studios         []string `json:"studios,omitempty"`
	Cast            []string `json:"cast,omitempty"`
	Runtime         int      `json:"runtime,omitempty"`

	Ratings
	Stats
}

// PageUrl is the endpoint of a film's main page.
func PageUrl(slug string) string {
	return fmt.Sprintf("/film/%s/", slug)
}

// RatingsUrl is the endpoint of a film's ratings-summary csi fragment.
func RatingsUrl(slug string) string {
	return fmt.Sprintf("/csi/film/%s/ratings-summary/", slug)
}

// StatsUrl is the endpoint of a film's stats csi fragment.
func StatsUrl(slug string) string {
	return fmt.Sprintf("/csi/film/%s/stats/", slug)
}

// ExtractDetails pulls the metadata block out of a film's main page. the
// ratings and stats fields stay zero here, those come from the csi fragments.
func ExtractDetails(doc *goquery.Document, sel selectors.Config) Details {
	page := sel.FilmPage
	details := Details{
		Title:     htmlutil.SelectText(doc.Selection, page.Title),
		Directors: htmlutil.SelectTextList(doc.Selection, page.Director),
		Countries: htmlutil.SelectTextList(doc.Selection, page.Countries),
		Studios:   htmlutil.SelectTextList(doc.Selection, page.Studios),
	}

	if year := htmlutil.SelectText(doc.Selection, page.Year); year != "" {
		details.Year, _ = strconv.Atoi(year)
	}

	details.Genres, details.Themes = splitGenres(
		htmlutil.SelectTextList(doc.Selection, page.Genres))

	details.PrimaryLanguage = htmlutil.SelectText(doc.Selection, page.PrimaryLanguage)
	details.OtherLanguages = otherLanguages(
		htmlutil.SelectTextList(doc.Selection, page.OtherLanguages),
		details.PrimaryLanguage,
	)

	cast := htmlutil.SelectTextList(doc.Selection, page.Cast)
	if len(cast) > castLimit {
		cast = cast[:castLimit]
	}
	details.Cast = cast

	if runtime := htmlutil.SelectText(doc.Selection, page.Runtime); runtime != "" {
		details.Runtime, _ = parseRuntime(runtime)
	}

	return details
}

// splitGenres partitions the genre tab's entries into genres proper and
// themes. matching against the vocabulary is case-insensitive and the
// canonical spelling wins; the tab's trailing "Show All" links are noise.
func splitGenres(entries []string) (genres, themes []string) {
	for _, entry := range entries {
		if strings.HasPrefix(entry, "Show All") {
			continue
		}
		if canonical, ok := genreVocabulary[strings.ToLower(entry)]; ok {
			genres = append(genres, canonical)
		} else {
			themes = append(themes, entry)
		}
	}
	return genres, themes
}

// otherLanguages removes every occurrence of the primary language from the
// full spoken-language list and dedupes what remains, preserving order.
func otherLanguages(all []string, primary string) []string {
	var out []string
	seen := map[string]bool{}
	for _, language := range all {
		if language == primary || seen[language] {
			continue
		}
		seen[language] = true
		out = append(out, language)
	}
	return out
}

// ExtractRatings reads a ratings-summary csi fragment: the weighted average
// tooltip, the fan count and the ten histogram buckets. fragments for films
// with too few ratings carry no weighted average and yield a sparse result.
func ExtractRatings(doc *goquery.Document, sel selectors.Config) Ratings {
	page := sel.FilmPage
	var ratings Ratings

	section := doc.Find(page.RatingSection).First()
	if section.Length() == 0 {
		section = doc.Selection
	}

	tooltip := htmlutil.SelectAttr(section, page.AverageRating, "data-original-title")
	if tooltip == "" {
		tooltip = htmlutil.SelectAttr(section, page.AverageRating, "title")
	}
	if average, total, ok := parseWeightedAverage(tooltip); ok {
		ratings.AverageRating = average
		ratings.TotalRatings = total
	}

	if fans := htmlutil.SelectText(section, page.FansLink); fans != "" {
		fans = strings.TrimSpace(strings.TrimSuffix(fans, "fans"))
		if n, err := parseAbbreviatedCount(fans); err == nil {
			ratings.Fans = n
		}
	}

	section.Find(page.HistogramBars).Each(func(_ int, bar *goquery.Selection) {
		title := bar.AttrOr("data-original-title", bar.AttrOr("title", ""))
		stars, count, percent, ok := parseHistogramTitle(title)
		if !ok {
			return
		}
		if ratings.Breakdown == nil {
			ratings.Breakdown = map[string]RatingBucket{}
		}
		ratings.Breakdown[starsKey(stars)] = RatingBucket{Count: count, Percentage: percent}
	})

	return ratings
}

// ExtractStats reads a stats csi fragment. each statistic carries an exact
// count in the link's tooltip ("Watched by 4,137,451 members") and an
// abbreviated one in the visible label; both are kept.
func ExtractStats(doc *goquery.Document, sel selectors.Config) Stats {
	page := sel.StatsPage
	container := doc.Find(page.Container).First()
	if container.Length() == 0 {
		container = doc.Selection
	}

	return Stats{
		Watches:         extractStat(container, sel, page.Watches),
		ListAppearances: extractStat(container, sel, page.Lists),
		Likes:           extractStat(container, sel, page.Likes),
	}
}

func extractStat(container *goquery.Selection, sel selectors.Config, statSelector string) StatCount {
	stat := container.Find(statSelector).First()
	if stat.Length() == 0 {
		return StatCount{}
	}

	var count StatCount
	link := stat.Find(sel.StatsPage.Link).First()
	tooltip := link.AttrOr("data-original-title", link.AttrOr("title", ""))
	if n, err := parseExactCount(tooltip); err == nil {
		count.Exact = n
	}
	if label := htmlutil.SelectText(stat, sel.StatsPage.Label); label != "" {
		if n, err := parseAbbreviatedCount(label); err == nil {
			count.Approximate = n
		}
	}
	return count
}
