package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/catalogue"
)

type moviesOptions struct {
	joinKey string
	limit   int64
	year    int
	since   int
	genre   string
	title   string
	actor   string
	keyword string
}

func newMoviesCmd() *cobra.Command {
	opts := moviesOptions{}
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Run the movie catalogue queries against the movies database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, cfg.Mongo.MoviesDatabase, logger)
			if err != nil {
				return err
			}
			defer closeStore(store)

			c := catalogue.New(accessor.New(store, accessor.WithLogger(logger)),
				catalogue.WithJoinKey(opts.joinKey),
				catalogue.WithLogger(logger))
			return runMovieQueries(ctx, c, opts, os.Stdout)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.joinKey, "join-key", catalogue.DefaultJoinKey, "movie field referenced by comments.movie_id")
	f.Int64Var(&opts.limit, "limit", 5, "maximum results for ranked queries")
	f.IntVar(&opts.year, "year", 1999, "release year")
	f.IntVar(&opts.since, "since", 2012, "earliest comment year")
	f.StringVar(&opts.genre, "genre", "Comedy", "genre filter")
	f.StringVar(&opts.title, "title", "The Matrix", "exact title")
	f.StringVar(&opts.actor, "actor", "Tom Hanks", "cast member")
	f.StringVar(&opts.keyword, "keyword", "space", "plot keyword")
	return cmd
}

// runMovieQueries prints the result of every catalogue query in turn
func runMovieQueries(ctx context.Context, c *catalogue.Catalogue, o moviesOptions, w io.Writer) error {
	queries := []struct {
		title string
		run   func() (interface{}, error)
	}{
		{fmt.Sprintf("Movies released in %d", o.year), func() (interface{}, error) { return c.ByYear(ctx, o.year) }},
		{fmt.Sprintf("Movies in genre %s", o.genre), func() (interface{}, error) { return c.ByGenre(ctx, o.genre) }},
		{fmt.Sprintf("Movie titled %q", o.title), func() (interface{}, error) { return c.ByTitle(ctx, o.title) }},
		{"Movies longer than 120 minutes", func() (interface{}, error) { return c.LongerThan(ctx, 120) }},
		{"Titles and years", func() (interface{}, error) { return c.TitlesAndYears(ctx) }},
		{"Movies rated above 8", func() (interface{}, error) { return c.RatedAbove(ctx, 8) }},
		{"Movies released 1990-2000", func() (interface{}, error) { return c.Between(ctx, 1990, 2000) }},
		{"Sci-Fi action movies", func() (interface{}, error) { return c.WithAllGenres(ctx, "Sci-Fi", "Action") }},
		{fmt.Sprintf("Movies with %s", o.actor), func() (interface{}, error) { return c.WithCastMember(ctx, o.actor) }},
		{fmt.Sprintf("Plots mentioning %q", o.keyword), func() (interface{}, error) { return c.PlotContains(ctx, o.keyword) }},
		{"Top rated", func() (interface{}, error) { return c.TopRated(ctx, o.limit) }},
		{"Most recent", func() (interface{}, error) { return c.MostRecent(ctx, o.limit) }},
		{"Longest comedies", func() (interface{}, error) { return c.LongestComedies(ctx, o.limit) }},
		{"Movies per genre", func() (interface{}, error) { return c.CountByGenre(ctx) }},
		{"Average rating per genre", func() (interface{}, error) { return c.AverageRatingByGenre(ctx) }},
		{"Most frequent actors", func() (interface{}, error) { return c.FrequentActors(ctx, o.limit) }},
		{"Comments per movie", func() (interface{}, error) { return c.CommentsPerMovie(ctx) }},
		{"Most voted movie", func() (interface{}, error) { return c.MostVoted(ctx) }},
		{"Most commented movies with their comments", func() (interface{}, error) { return c.MoviesWithComments(ctx, o.limit) }},
		{fmt.Sprintf("Movies commented since %d", o.since), func() (interface{}, error) { return c.CommentedSince(ctx, o.since) }},
		{"Comments per user", func() (interface{}, error) { return c.CommentsPerUser(ctx) }},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for i, q := range queries {
		result, err := q.run()
		if err != nil {
			return fmt.Errorf("%s: %w", q.title, err)
		}
		fmt.Fprintf(w, "\n=== %d. %s ===\n", i+1, q.title)
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}
