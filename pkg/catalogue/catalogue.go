package catalogue

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

const (
	DefaultMovies   = "movies"
	DefaultComments = "comments"
	// DefaultJoinKey is the movie field that comments reference through movie_id
	DefaultJoinKey = "_id"
)

// Catalogue runs read-only queries over a movies collection and its comments.
// Every query goes through the accessor, so store failures surface as errors
// rather than empty results.
type Catalogue struct {
	acc      *accessor.Accessor
	movies   string
	comments string
	joinKey  string
	logger   *zap.Logger
}

type Option func(*Catalogue)

// WithCollections overrides the movies and comments collection names
func WithCollections(movies, comments string) Option {
	return func(c *Catalogue) {
		c.movies = movies
		c.comments = comments
	}
}

// WithJoinKey sets the movie field matched against comments.movie_id
func WithJoinKey(field string) Option {
	return func(c *Catalogue) {
		c.joinKey = field
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalogue) {
		c.logger = logger
	}
}

func New(acc *accessor.Accessor, opts ...Option) *Catalogue {
	c := &Catalogue{
		acc:      acc,
		movies:   DefaultMovies,
		comments: DefaultComments,
		joinKey:  DefaultJoinKey,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalogue) list(ctx context.Context, coll, query string, opts accessor.ListOptions) ([]domain.Document, error) {
	page, err := c.acc.List(ctx, coll, opts)
	if err != nil {
		c.logger.Error("catalogue query failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("catalogue query", zap.String("query", query), zap.Int("results", len(page.Items)))
	return page.Items, nil
}

func (c *Catalogue) movieList(ctx context.Context, query string, filter domain.Attributes) ([]domain.Document, error) {
	return c.list(ctx, c.movies, query, accessor.ListOptions{Attributes: filter, Fields: domain.AllFields()})
}

func present(extra domain.Document) domain.Document {
	cond := domain.Document{"$exists": true, "$ne": nil}
	for k, v := range extra {
		cond[k] = v
	}
	return cond
}

// Basic filtering

func (c *Catalogue) ByYear(ctx context.Context, year int) ([]domain.Document, error) {
	return c.movieList(ctx, "by year", domain.Attributes{"year": year})
}

func (c *Catalogue) ByGenre(ctx context.Context, genre string) ([]domain.Document, error) {
	return c.movieList(ctx, "by genre", domain.Attributes{"genres": genre})
}

// ByTitle returns the first movie with exactly this title, or nil
func (c *Catalogue) ByTitle(ctx context.Context, title string) (domain.Document, error) {
	return c.acc.GetByAttributes(ctx, c.movies, domain.Attributes{"title": title}, domain.AllFields())
}

// LongerThan returns movies with a runtime strictly above minutes
func (c *Catalogue) LongerThan(ctx context.Context, minutes int) ([]domain.Document, error) {
	return c.movieList(ctx, "by runtime", domain.Attributes{"runtime": domain.Document{"$gt": minutes}})
}

func (c *Catalogue) TitlesAndYears(ctx context.Context) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "titles and years", accessor.ListOptions{Fields: domain.Fields("title", "year")})
}

// RatedAbove returns movies with an IMDb rating strictly above rating
func (c *Catalogue) RatedAbove(ctx context.Context, rating float64) ([]domain.Document, error) {
	return c.movieList(ctx, "by rating", domain.Attributes{"imdb.rating": domain.Document{"$gt": rating}})
}

// Between returns movies released in [from, to]
func (c *Catalogue) Between(ctx context.Context, from, to int) ([]domain.Document, error) {
	if from > to {
		return nil, domain.InvalidArgumentf("year range %d-%d is empty", from, to)
	}
	return c.movieList(ctx, "by year range", domain.Attributes{"year": domain.Document{"$gte": from, "$lte": to}})
}

// WithAllGenres returns movies listing every given genre
func (c *Catalogue) WithAllGenres(ctx context.Context, genres ...string) ([]domain.Document, error) {
	if len(genres) == 0 {
		return nil, domain.InvalidArgumentf("at least one genre is required")
	}
	all := make([]interface{}, len(genres))
	for i, g := range genres {
		all[i] = g
	}
	return c.movieList(ctx, "by genres", domain.Attributes{"genres": domain.Document{"$all": all}})
}

func (c *Catalogue) WithCastMember(ctx context.Context, actor string) ([]domain.Document, error) {
	return c.movieList(ctx, "by cast member", domain.Attributes{"cast": actor})
}

// PlotContains matches keyword anywhere in the plot, ignoring case. The
// keyword is matched literally.
func (c *Catalogue) PlotContains(ctx context.Context, keyword string) ([]domain.Document, error) {
	if keyword == "" {
		return nil, domain.InvalidArgumentf("keyword must not be empty")
	}
	return c.movieList(ctx, "by plot keyword", domain.Attributes{
		"plot": domain.Document{"$regex": regexp.QuoteMeta(keyword), "$options": "i"},
	})
}

// Sorting and limiting

func (c *Catalogue) TopRated(ctx context.Context, limit int64) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "top rated", accessor.ListOptions{
		Attributes: domain.Attributes{"imdb.rating": present(domain.Document{"$gte": 1})},
		Fields:     domain.Fields("title", "year", "imdb"),
		Sort:       domain.SortBy("imdb.rating", domain.Descending),
		Limit:      limit,
	})
}

func (c *Catalogue) MostRecent(ctx context.Context, limit int64) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "most recent", accessor.ListOptions{
		Attributes: domain.Attributes{"year": present(nil)},
		Fields:     domain.Fields("title", "year"),
		Sort:       domain.SortBy("year", domain.Descending),
		Limit:      limit,
	})
}

func (c *Catalogue) LongestComedies(ctx context.Context, limit int64) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "longest comedies", accessor.ListOptions{
		Attributes: domain.Attributes{"genres": "Comedy", "runtime": present(nil)},
		Fields:     domain.Fields("title", "runtime", "year"),
		Sort:       domain.SortBy("runtime", domain.Descending),
		Limit:      limit,
	})
}

// MostVoted returns the movie with the most IMDb votes, or nil
func (c *Catalogue) MostVoted(ctx context.Context) (domain.Document, error) {
	items, err := c.list(ctx, c.movies, "most voted", accessor.ListOptions{
		Attributes: domain.Attributes{"imdb.votes": present(domain.Document{"$gte": 1})},
		Fields:     domain.Fields("title", "year", "imdb"),
		Sort:       domain.SortBy("imdb.votes", domain.Descending),
		Limit:      1,
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// Aggregations. Grouped results carry the group key in _id and break ties on
// it so output order is stable.

func (c *Catalogue) CountByGenre(ctx context.Context) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "count by genre", accessor.ListOptions{
		Stages: []domain.Stage{
			domain.Custom(domain.OpUnwind, "$genres"),
			domain.Custom(domain.OpGroup, domain.Document{"_id": "$genres", "count": domain.Document{"$sum": 1}}),
		},
		Sort: domain.SortBy("count", domain.Descending).Then("_id", domain.Ascending),
	})
}

func (c *Catalogue) AverageRatingByGenre(ctx context.Context) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "average rating by genre", accessor.ListOptions{
		Attributes: domain.Attributes{"imdb.rating": present(nil)},
		Stages: []domain.Stage{
			domain.Custom(domain.OpUnwind, "$genres"),
			domain.Custom(domain.OpGroup, domain.Document{
				"_id":            "$genres",
				"average_rating": domain.Document{"$avg": "$imdb.rating"},
				"movie_count":    domain.Document{"$sum": 1},
			}),
		},
		Sort: domain.SortBy("average_rating", domain.Descending).Then("_id", domain.Ascending),
	})
}

func (c *Catalogue) FrequentActors(ctx context.Context, limit int64) ([]domain.Document, error) {
	return c.list(ctx, c.movies, "frequent actors", accessor.ListOptions{
		Stages: []domain.Stage{
			domain.Custom(domain.OpUnwind, "$cast"),
			domain.Custom(domain.OpGroup, domain.Document{"_id": "$cast", "movie_count": domain.Document{"$sum": 1}}),
		},
		Sort:  domain.SortBy("movie_count", domain.Descending).Then("_id", domain.Ascending),
		Limit: limit,
	})
}

func (c *Catalogue) lookupMovie(as string) domain.Stage {
	return domain.Custom(domain.OpLookup, domain.Document{
		"from":         c.movies,
		"localField":   "_id",
		"foreignField": c.joinKey,
		"as":           as,
	})
}

// CommentsPerMovie counts comments per movie. Comments whose movie is
// missing are dropped.
func (c *Catalogue) CommentsPerMovie(ctx context.Context) ([]domain.Document, error) {
	return c.list(ctx, c.comments, "comments per movie", accessor.ListOptions{
		Stages: []domain.Stage{
			domain.Custom(domain.OpGroup, domain.Document{"_id": "$movie_id", "comment_count": domain.Document{"$sum": 1}}),
			c.lookupMovie("movie_info"),
			domain.Custom(domain.OpUnwind, "$movie_info"),
			domain.Custom(domain.OpProject, domain.Document{"_id": 1, "comment_count": 1, "movie_title": "$movie_info.title"}),
		},
		Sort: domain.SortBy("comment_count", domain.Descending).Then("_id", domain.Ascending),
	})
}

// MoviesWithComments lists the most commented movies with their comments
func (c *Catalogue) MoviesWithComments(ctx context.Context, limit int64) ([]domain.Document, error) {
	return c.list(ctx, c.comments, "movies with comments", accessor.ListOptions{
		Stages: []domain.Stage{
			domain.Custom(domain.OpGroup, domain.Document{
				"_id":           "$movie_id",
				"comment_count": domain.Document{"$sum": 1},
				"comments": domain.Document{"$push": domain.Document{
					"name": "$name",
					"text": "$text",
					"date": "$date",
				}},
			}),
			c.lookupMovie("movie"),
			domain.Custom(domain.OpUnwind, "$movie"),
			domain.Custom(domain.OpProject, domain.Document{
				"_id":           1,
				"title":         "$movie.title",
				"comment_count": 1,
				"comments":      1,
			}),
		},
		Sort:  domain.SortBy("comment_count", domain.Descending).Then("_id", domain.Ascending),
		Limit: limit,
	})
}

// CommentedSince returns the title and year of movies with at least one
// comment posted on or after January 1st of year (UTC)
func (c *Catalogue) CommentedSince(ctx context.Context, year int) ([]domain.Document, error) {
	since := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return c.list(ctx, c.comments, "commented since", accessor.ListOptions{
		Attributes: domain.Attributes{"date": domain.Document{"$gte": since}},
		Stages: []domain.Stage{
			domain.Custom(domain.OpGroup, domain.Document{"_id": "$movie_id"}),
			c.lookupMovie("movie"),
			domain.Custom(domain.OpUnwind, "$movie"),
			domain.Custom(domain.OpProject, domain.Document{"_id": 0, "title": "$movie.title", "year": "$movie.year"}),
		},
		Sort: domain.SortBy("title", domain.Ascending),
	})
}

func (c *Catalogue) CommentsPerUser(ctx context.Context) ([]domain.Document, error) {
	return c.list(ctx, c.comments, "comments per user", accessor.ListOptions{
		Stages: []domain.Stage{
			domain.Custom(domain.OpGroup, domain.Document{"_id": "$name", "comment_count": domain.Document{"$sum": 1}}),
		},
		Sort: domain.SortBy("comment_count", domain.Descending).Then("_id", domain.Ascending),
	})
}
