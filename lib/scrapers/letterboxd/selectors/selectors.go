// Package selectors holds the CSS selector configuration driving extraction.
// selectors live in config rather than code because the site's markup drifts
// a few times a year and updating a json5 file beats cutting a release.
package selectors

import "boxdharvest/lib/configutil"

type FilmList struct {
	// ordered container strategies, first one that matches anything wins
	ItemStrategies []string `json:"item_strategies"`
	FilmImg        string   `json:"film_img"`
	PosterCount    string   `json:"poster_container"`
}

type FilmPage struct {
	Title           string `json:"title"`
	Year            string `json:"year"`
	Director        string `json:"director"`
	Genres          string `json:"genres"`
	Countries       string `json:"countries"`
	PrimaryLanguage string `json:"primary_language"`
	OtherLanguages  string `json:"other_languages"`
	Studios         string `json:"studios"`
	Cast            string `json:"cast"`
	Runtime         string `json:"runtime"`
	RatingSection   string `json:"rating_section"`
	AverageRating   string `json:"average_rating"`
	FansLink        string `json:"fans_link"`
	HistogramBars   string `json:"histogram_bars"`
}

type StatsPage struct {
	Container string `json:"stats_container"`
	Watches   string `json:"watches_stat"`
	Lists     string `json:"lists_stat"`
	Likes     string `json:"likes_stat"`
	Label     string `json:"label"`
	Link      string `json:"link"`
}

type Pagination struct {
	Container string `json:"pagination_container"`
	PageLinks string `json:"page_links"`
}

type Attributes struct {
	ItemSlug    string `json:"data_item_slug"`
	FilmSlug    string `json:"data_film_slug"`
	FilmId      string `json:"data_film_id"`
	ItemName    string `json:"data_item_name"`
	FilmName    string `json:"data_film_name"`
	OwnerRating string `json:"data_owner_rating"`
	ItemLink    string `json:"data_item_link"`
	TargetLink  string `json:"data_target_link"`
	ImgAlt      string `json:"alt"`
}

type Config struct {
	FilmList   FilmList   `json:"film_list"`
	FilmPage   FilmPage   `json:"film_page"`
	StatsPage  StatsPage  `json:"stats_page"`
	Pagination Pagination `json:"pagination"`
	Attributes Attributes `json:"attributes"`
}

// Default returns the compiled-in selector set, kept current with the site's
// markup as of mid 2026. the newer data-item-* attributes come first, the
// data-film-* variants cover pages still served with the older markup.
func Default() Config {
	return Config{
		FilmList: FilmList{
			ItemStrategies: []string{
				"div[data-item-slug]",
				"div[data-film-slug]",
				"div[data-film-id]",
			},
			FilmImg:     "img",
			PosterCount: ".poster-container",
		},
		FilmPage: FilmPage{
			Title:           "h1.headline-1 .name",
			Year:            ".releaseyear a",
			Director:        ".credits .prettify",
			Genres:          "#tab-genres .text-slug",
			Countries:       `#tab-details .text-sluglist a[href*="/films/country/"]`,
			PrimaryLanguage: `#tab-details .text-sluglist a[href*="/films/language/"]:first-of-type`,
			OtherLanguages:  `#tab-details .text-sluglist a[href*="/films/language/"]`,
			Studios:         `#tab-details .text-sluglist a[href*="/studio/"]`,
			Cast:            ".cast-list .text-slug",
			Runtime:         "p.text-link",
			RatingSection:   "section.ratings-histogram-chart",
			AverageRating:   ".average-rating .display-rating",
			FansLink:        `a[href*="/fans/"]`,
			HistogramBars:   ".rating-histogram-bar a",
		},
		StatsPage: StatsPage{
			Container: ".production-statistic-list",
			Watches:   ".production-statistic.-watches",
			Lists:     ".production-statistic.-lists",
			Likes:     ".production-statistic.-likes",
			Label:     ".label",
			Link:      "a",
		},
		Pagination: Pagination{
			Container: "div.paginate-pages",
			PageLinks: "a",
		},
		Attributes: Attributes{
			ItemSlug:    "data-item-slug",
			FilmSlug:    "data-film-slug",
			FilmId:      "data-film-id",
			ItemName:    "data-item-name",
			FilmName:    "data-film-name",
			OwnerRating: "data-owner-rating",
			ItemLink:    "data-item-link",
			TargetLink:  "data-target-link",
			ImgAlt:      "alt",
		},
	}
}

// Load reads a selector config file, falling back to Default when the file
// is missing or malformed. this boundary is never fatal.
func Load(path string) Config {
	return configutil.ReadOrDefault(path, Default())
}
