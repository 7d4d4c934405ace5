// Package export writes harvested film records to disk as json or csv.
package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"boxdharvest/lib/scrapers/letterboxd/harvest"
)

// multi-valued csv cells are joined with this, none of the site's names
// contain it
const listSeparator = "; "

// WriteJSON writes the records as an indented json array, the format
// LoadFilms reads back.
func WriteJSON(path string, films []harvest.Film) error {
	contents, err := json.MarshalIndent(films, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0644)
}

var csvHeader = []string{
	"list_position", "slug", "name", "film_id", "owner_rating",
	"source_page", "source_list",
	"title", "year", "directors", "genres", "themes", "countries",
	"primary_language", "other_languages", "studios", "cast", "runtime",
	"average_rating", "total_ratings", "fans",
	"watches", "list_appearances", "likes",
}

// WriteCSV writes the records as a spreadsheet-friendly table. list-valued
// fields are flattened into a single joined cell.
func WriteCSV(path string, films []harvest.Film) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range films {
		record := []string{
			strconv.Itoa(f.ListPosition),
			f.Slug,
			f.Name,
			f.FilmId,
			f.OwnerRating,
			strconv.Itoa(f.SourcePage),
			f.SourceList,
			f.Title,
			strconv.Itoa(f.Year),
			strings.Join(f.Directors, listSeparator),
			strings.Join(f.Genres, listSeparator),
			strings.Join(f.Themes, listSeparator),
			strings.Join(f.Countries, listSeparator),
			f.PrimaryLanguage,
			strings.Join(f.OtherLanguages, listSeparator),
			strings.Join(f.Studios, listSeparator),
			strings.Join(f.Cast, listSeparator),
			strconv.Itoa(f.Runtime),
			strconv.FormatFloat(f.AverageRating, 'f', -1, 64),
			strconv.FormatInt(f.TotalRatings, 10),
			strconv.FormatInt(f.Fans, 10),
			strconv.FormatInt(f.Watches.Value(), 10),
			strconv.FormatInt(f.ListAppearances.Value(), 10),
			strconv.FormatInt(f.Likes.Value(), 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
