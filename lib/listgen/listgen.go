// Package listgen derives curated film lists from previously harvested
// records: filter, sort, cap.
package listgen

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"boxdharvest/lib/scrapers/letterboxd/harvest"

	"github.com/antzucaro/matchr"
)

// jaro-winkler similarity above this counts as a title match
const fuzzyThreshold = 0.85

type SortBy string

const (
	SortByPosition SortBy = "position"
	SortByTitle    SortBy = "title"
	SortByYear     SortBy = "year"
	SortByRuntime  SortBy = "runtime"
	SortByRating   SortBy = "rating"
	SortByWatches  SortBy = "watches"
)

// Filter is a conjunction: a film passes only when every set field matches.
// zero values disable their clause.
type Filter struct {
	YearMin    int     `json:"year_min,omitempty"`
	YearMax    int     `json:"year_max,omitempty"`
	RuntimeMin int     `json:"runtime_min,omitempty"`
	RuntimeMax int     `json:"runtime_max,omitempty"`
	MinRating  float64 `json:"min_rating,omitempty"`
	// any-of matches against the film's genre and country lists
	Genres    []string `json:"genres,omitempty"`
	Countries []string `json:"countries,omitempty"`
	// PrimaryLanguage matches exactly, Languages matches the primary or any
	// secondary language
	PrimaryLanguage string   `json:"primary_language,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	// Title matches by substring or jaro-winkler similarity
	Title string `json:"title,omitempty"`
}

type Options struct {
	Filter     Filter
	SortBy     SortBy
	Descending bool
	// Limit caps the generated list, 0 means unbounded
	Limit int
}

// Generate applies the filter, sorts, and caps. the input slice is never
// mutated.
func Generate(films []harvest.Film, opts Options) []harvest.Film {
	out := make([]harvest.Film, 0, len(films))
	for _, f := range films {
		if opts.Filter.matches(f) {
			out = append(out, f)
		}
	}

	sortGenerated(out, opts.SortBy, opts.Descending)

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func (filter Filter) matches(f harvest.Film) bool {
	if filter.YearMin != 0 && f.Year < filter.YearMin {
		return false
	}
	if filter.YearMax != 0 && f.Year > filter.YearMax {
		return false
	}
	if filter.RuntimeMin != 0 && f.Runtime < filter.RuntimeMin {
		return false
	}
	if filter.RuntimeMax != 0 && f.Runtime > filter.RuntimeMax {
		return false
	}
	if filter.MinRating != 0 && f.AverageRating < filter.MinRating {
		return false
	}
	if len(filter.Genres) > 0 && !anyFold(f.Genres, filter.Genres) {
		return false
	}
	if len(filter.Countries) > 0 && !anyFold(f.Countries, filter.Countries) {
		return false
	}
	if filter.PrimaryLanguage != "" &&
		!strings.EqualFold(f.PrimaryLanguage, filter.PrimaryLanguage) {
		return false
	}
	if len(filter.Languages) > 0 {
		spoken := append([]string{f.PrimaryLanguage}, f.OtherLanguages...)
		if !anyFold(spoken, filter.Languages) {
			return false
		}
	}
	if filter.Title != "" && !titleMatches(f, filter.Title) {
		return false
	}
	return true
}

func anyFold(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if strings.EqualFold(h, n) {
				return true
			}
		}
	}
	return false
}

// titleMatches checks the query against both the list-entry name and the
// film-page title. misremembered titles still hit through the similarity
// fallback.
func titleMatches(f harvest.Film, query string) bool {
	query = strings.ToLower(query)
	for _, title := range []string{f.Name, f.Title} {
		title = strings.ToLower(title)
		if title == "" {
			continue
		}
		if strings.Contains(title, query) {
			return true
		}
		if matchr.JaroWinkler(title, query, true) >= fuzzyThreshold {
			return true
		}
	}
	return false
}

func sortGenerated(films []harvest.Film, by SortBy, descending bool) {
	less := func(a, b harvest.Film) bool { return a.ListPosition < b.ListPosition }
	switch by {
	case SortByTitle:
		less = func(a, b harvest.Film) bool { return a.Name < b.Name }
	case SortByYear:
		less = func(a, b harvest.Film) bool { return a.Year < b.Year }
	case SortByRuntime:
		less = func(a, b harvest.Film) bool { return a.Runtime < b.Runtime }
	case SortByRating:
		less = func(a, b harvest.Film) bool { return a.AverageRating < b.AverageRating }
	case SortByWatches:
		less = func(a, b harvest.Film) bool { return a.Watches.Value() < b.Watches.Value() }
	}
	sort.SliceStable(films, func(i, j int) bool {
		if descending {
			return less(films[j], films[i])
		}
		return less(films[i], films[j])
	})
}

// LoadFilms reads harvested film records from one or more json files and
// merges them. films appearing in multiple files are keyed by film id (slug
// when the id is missing) and the last file read wins, so later harvests
// refresh earlier ones.
func LoadFilms(paths ...string) ([]harvest.Film, error) {
	var order []string
	byKey := map[string]harvest.Film{}

	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var films []harvest.Film
		if err := json.Unmarshal(contents, &films); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, f := range films {
			key := f.FilmId
			if key == "" {
				key = f.Slug
			}
			if _, ok := byKey[key]; !ok {
				order = append(order, key)
			}
			byKey[key] = f
		}
	}

	out := make([]harvest.Film, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, nil
}
