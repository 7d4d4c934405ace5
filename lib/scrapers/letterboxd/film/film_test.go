package film

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

func TestUrls(t *testing.T) {
	require.Equal(t, "/film/parasite-2019/", PageUrl("parasite-2019"))
	require.Equal(t, "/csi/film/parasite-2019/ratings-summary/", RatingsUrl("parasite-2019"))
	require.Equal(t, "/csi/film/parasite-2019/stats/", StatsUrl("parasite-2019"))
}

const filmPageFixture = `
<html><body>
	<h1 class="headline-1"><span class="name">Parasite</span></h1>
	<div class="releaseyear"><a href="/films/year/2019/">2019</a></div>
	<p class="credits"><span class="prettify">Bong Joon-ho</span></p>
	<div id="tab-genres">
		<a class="text-slug" href="/films/genre/comedy/">Comedy</a>
		<a class="text-slug" href="/films/genre/thriller/">Thriller</a>
		<a class="text-slug" href="/films/genre/drama/">drama</a>
		<a class="text-slug" href="/films/theme/class/">Class conflict</a>
		<a class="text-slug" href="/films/genre/">Show All Genres</a>
	</div>
	<div id="tab-details">
		<div class="text-sluglist">
			<a href="/films/country/south-korea/">South Korea</a>
		</div>
		<div class="text-sluglist">
			<a href="/films/language/korean/">Korean</a>
			<a href="/films/language/english/">English</a>
			<a href="/films/language/korean/">Korean</a>
			<a href="/films/language/german/">German</a>
		</div>
		<div class="text-sluglist">
			<a href="/studio/barunson/">Barunson E&amp;A</a>
		</div>
	</div>
	<div class="cast-list">
		<a class="text-slug">Song Kang-ho</a>
		<a class="text-slug">Lee Sun-kyun</a>
		<a class="text-slug">Cho Yeo-jeong</a>
		<a class="text-slug">Choi Woo-shik</a>
		<a class="text-slug">Park So-dam</a>
		<a class="text-slug">Lee Jung-eun</a>
		<a class="text-slug">Jang Hye-jin</a>
		<a class="text-slug">Park Myung-hoon</a>
		<a class="text-slug">Jung Ji-so</a>
		<a class="text-slug">Jung Hyeon-jun</a>
		<a class="text-slug">Extra Eleven</a>
	</div>
	<p class="text-link">132 mins &nbsp; More at IMDb TMDB</p>
</body></html>`

func TestExtractDetails(t *testing.T) {
	details := ExtractDetails(parse(t, filmPageFixture), selectors.Default())

	require.Equal(t, "Parasite", details.Title)
	require.Equal(t, 2019, details.Year)
	require.Equal(t, []string{"Bong Joon-ho"}, details.Directors)

	// vocabulary matching is case-insensitive and canonicalizes spelling,
	// everything off-vocabulary lands in themes
	require.Equal(t, []string{"Comedy", "Thriller", "Drama"}, details.Genres)
	require.Equal(t, []string{"Class conflict"}, details.Themes)

	require.Equal(t, []string{"South Korea"}, details.Countries)
	require.Equal(t, "Korean", details.PrimaryLanguage)
	require.Equal(t, []string{"English", "German"}, details.OtherLanguages)
	require.Equal(t, []string{"Barunson E&A"}, details.Studios)

	require.Len(t, details.Cast, 10)
	require.NotContains(t, details.Cast, "Extra Eleven")

	require.Equal(t, 132, details.Runtime)
}

func TestExtractDetailsSparsePage(t *testing.T) {
	details := ExtractDetails(parse(t, `<html><body></body></html>`), selectors.Default())
	require.Equal(t, Details{}, details)
}

const ratingsFixture = `
<section class="ratings-histogram-chart">
	<span class="average-rating">
		<a class="display-rating"
			data-original-title="Weighted average of 4.57 based on 1,089,968 ratings">4.6</a>
	</span>
	<a href="/film/parasite-2019/fans/">712K fans</a>
	<div class="rating-histogram-bar">
		<a data-original-title="9,113 ½ ratings (1%)"></a>
	</div>
	<div class="rating-histogram-bar">
		<a data-original-title="No ★ ratings"></a>
	</div>
	<div class="rating-histogram-bar">
		<a data-original-title="152,638 ★★★★ ratings (28%)"></a>
	</div>
	<div class="rating-histogram-bar">
		<a data-original-title="305,123 ★★★★★ ratings (49%)"></a>
	</div>
</section>`

func TestExtractRatings(t *testing.T) {
	ratings := ExtractRatings(parse(t, ratingsFixture), selectors.Default())

	require.Equal(t, 4.57, ratings.AverageRating)
	require.EqualValues(t, 1_089_968, ratings.TotalRatings)
	require.EqualValues(t, 712_000, ratings.Fans)
	require.Equal(t, map[string]RatingBucket{
		"stars_0.5": {Count: 9_113, Percentage: 1},
		"stars_4":   {Count: 152_638, Percentage: 28},
		"stars_5":   {Count: 305_123, Percentage: 49},
	}, ratings.Breakdown)
}

func TestExtractRatingsTooFewRatings(t *testing.T) {
	ratings := ExtractRatings(parse(t, `
		<section class="ratings-histogram-chart">
			<a href="/film/obscure/fans/">3 fans</a>
		</section>`), selectors.Default())

	require.Zero(t, ratings.AverageRating)
	require.Zero(t, ratings.TotalRatings)
	require.EqualValues(t, 3, ratings.Fans)
	require.Nil(t, ratings.Breakdown)
}

const statsFixture = `
<ul class="production-statistic-list">
	<li class="production-statistic -watches">
		<a href="/film/parasite-2019/members/" data-original-title="Watched by 4,137,451 members">
			<span class="label">4.1M</span>
		</a>
	</li>
	<li class="production-statistic -lists">
		<a href="/film/parasite-2019/lists/" data-original-title="Appears in 1,018,967 lists">
			<span class="label">1M</span>
		</a>
	</li>
	<li class="production-statistic -likes">
		<a href="/film/parasite-2019/likes/" data-original-title="Liked by 2,077,118 members">
			<span class="label">2.1M</span>
		</a>
	</li>
</ul>`

func TestExtractStats(t *testing.T) {
	stats := ExtractStats(parse(t, statsFixture), selectors.Default())

	require.Equal(t, Stats{
		Watches:         StatCount{Exact: 4_137_451, Approximate: 4_100_000},
		ListAppearances: StatCount{Exact: 1_018_967, Approximate: 1_000_000},
		Likes:           StatCount{Exact: 2_077_118, Approximate: 2_100_000},
	}, stats)
	require.EqualValues(t, 4_137_451, stats.Watches.Value())
}

func TestExtractStatsWithoutTooltip(t *testing.T) {
	// no tooltip, the abbreviated label is the only source
	stats := ExtractStats(parse(t, `
		<ul class="production-statistic-list">
			<li class="production-statistic -watches">
				<a href="/film/x/members/"><span class="label">4.1M</span></a>
			</li>
		</ul>`), selectors.Default())

	require.Equal(t, StatCount{Approximate: 4_100_000}, stats.Watches)
	require.EqualValues(t, 4_100_000, stats.Watches.Value())
	require.Zero(t, stats.Likes)
}
