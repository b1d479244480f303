package seeder

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// Actor is recorded as creator of every seeded item
const Actor = "seeder"

// Collections seeded, in dependency order
var Collections = []string{"users", "teams", "projects"}

// Seeder populates the users, teams and projects collections with a small
// linked dataset: teams reference user pids and projects reference team pids.
type Seeder struct {
	acc    *accessor.Accessor
	logger *zap.Logger
}

func New(acc *accessor.Accessor, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{acc: acc, logger: logger}
}

// Result holds the created items per collection
type Result struct {
	Users    []domain.Document
	Teams    []domain.Document
	Projects []domain.Document
}

// SeedAll clears the seeded collections and recreates the dataset
func (s *Seeder) SeedAll(ctx context.Context) (*Result, error) {
	s.logger.Info("starting database seeding")

	if err := s.Clear(ctx); err != nil {
		return nil, err
	}

	users, err := s.seedUsers(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.seedTeams(ctx, users)
	if err != nil {
		return nil, err
	}
	projects, err := s.seedProjects(ctx, teams)
	if err != nil {
		return nil, err
	}

	s.logger.Info("database seeding completed",
		zap.Int("users", len(users)),
		zap.Int("teams", len(teams)),
		zap.Int("projects", len(projects)))
	return &Result{Users: users, Teams: teams, Projects: projects}, nil
}

// Clear removes every item from the seeded collections
func (s *Seeder) Clear(ctx context.Context) error {
	for _, coll := range Collections {
		n, err := s.acc.DeleteManyByAttributes(ctx, coll, domain.Attributes{})
		if err != nil {
			return fmt.Errorf("clear %s: %w", coll, err)
		}
		s.logger.Debug("collection cleared", zap.String("collection", coll), zap.Int64("deleted", n))
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]domain.Document, error) {
	users := []domain.Document{
		{"name": "Alice Martin", "email": "alice@company.com", "role": "admin"},
		{"name": "Bob Dupont", "email": "bob@company.com", "role": "developer"},
		{"name": "Claire Durand", "email": "claire@company.com", "role": "designer"},
		{"name": "David Moreau", "email": "david@company.com", "role": "manager"},
		{"name": "Eva Bernard", "email": "eva@company.com", "role": "developer"},
		{"name": "Frank Leblanc", "email": "frank@company.com", "role": "tester"},
		{"name": "Grace Rousseau", "email": "grace@company.com", "role": "designer"},
		{"name": "Henri Dubois", "email": "henri@company.com", "role": "developer"},
	}
	return s.create(ctx, "users", users)
}

func (s *Seeder) seedTeams(ctx context.Context, users []domain.Document) ([]domain.Document, error) {
	byRole := map[string][]string{}
	for _, u := range users {
		role, _ := u["role"].(string)
		byRole[role] = append(byRole[role], u.PID())
	}
	type member struct {
		role  string
		index int
	}
	layout := []struct {
		name    string
		members []member
	}{
		{"Frontend Team", []member{{"developer", 0}, {"designer", 0}, {"designer", 1}}},
		{"Backend Team", []member{{"developer", 1}, {"developer", 2}, {"admin", 0}}},
		{"QA Team", []member{{"tester", 0}, {"developer", 0}}},
		{"Management Team", []member{{"manager", 0}, {"admin", 0}}},
		{"Full Stack Team", []member{{"developer", 0}, {"developer", 1}, {"designer", 0}, {"tester", 0}}},
	}

	teams := make([]domain.Document, 0, len(layout))
	for _, team := range layout {
		members := make([]interface{}, 0, len(team.members))
		for _, m := range team.members {
			pids := byRole[m.role]
			if m.index >= len(pids) {
				return nil, fmt.Errorf("seed teams: need %d users with role %q, have %d", m.index+1, m.role, len(pids))
			}
			members = append(members, pids[m.index])
		}
		teams = append(teams, domain.Document{"name": team.name, "members": members})
	}
	return s.create(ctx, "teams", teams)
}

func (s *Seeder) seedProjects(ctx context.Context, teams []domain.Document) ([]domain.Document, error) {
	if len(teams) < 5 {
		return nil, fmt.Errorf("seed projects: need 5 teams, have %d", len(teams))
	}
	team := func(i int) string { return teams[i].PID() }
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	projects := []domain.Document{
		{"name": "E-commerce Platform", "teams": []interface{}{team(0), team(1)}, "tags": []interface{}{"urgent", "frontend", "backend", "web"}, "budget": 50000, "deadline": date(2024, time.December, 31)},
		{"name": "Mobile App Development", "teams": []interface{}{team(4)}, "tags": []interface{}{"mobile", "react-native", "urgent"}, "budget": 35000, "deadline": date(2024, time.October, 15)},
		{"name": "API Microservices", "teams": []interface{}{team(1)}, "tags": []interface{}{"backend", "microservices", "api"}, "budget": 25000, "deadline": date(2024, time.November, 30)},
		{"name": "User Interface Redesign", "teams": []interface{}{team(0)}, "tags": []interface{}{"frontend", "ui", "design"}, "budget": 15000, "deadline": date(2024, time.September, 30)},
		{"name": "Data Analytics Dashboard", "teams": []interface{}{team(1), team(4)}, "tags": []interface{}{"analytics", "dashboard", "data"}, "budget": 40000, "deadline": date(2025, time.January, 31)},
		{"name": "Security Audit System", "teams": []interface{}{team(2), team(1)}, "tags": []interface{}{"security", "audit", "urgent"}, "budget": 30000, "deadline": date(2024, time.November, 15)},
		{"name": "Customer Support Portal", "teams": []interface{}{team(0), team(2)}, "tags": []interface{}{"support", "portal", "customer"}, "budget": 20000, "deadline": date(2024, time.December, 15)},
		{"name": "Internal Tools Suite", "teams": []interface{}{team(4)}, "tags": []interface{}{"internal", "tools", "productivity"}, "budget": 18000, "deadline": date(2025, time.February, 28)},
	}
	return s.create(ctx, "projects", projects)
}

func (s *Seeder) create(ctx context.Context, coll string, items []domain.Document) ([]domain.Document, error) {
	created, err := s.acc.CreateMany(ctx, coll, items, Actor)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", coll, err)
	}
	s.logger.Info("collection seeded", zap.String("collection", coll), zap.Int("count", len(created)))
	return created, nil
}

// Sample returns up to n items of a collection with all fields
func (s *Seeder) Sample(ctx context.Context, coll string, n int64) ([]domain.Document, error) {
	page, err := s.acc.List(ctx, coll, accessor.ListOptions{Fields: domain.AllFields(), Limit: n})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Count is one bucket of a grouped count
type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Summary describes the seeded dataset
type Summary struct {
	Users       int64   `json:"users"`
	UsersByRole []Count `json:"usersByRole"`
	Teams       int64   `json:"teams"`
	Projects    int64   `json:"projects"`
	TopTags     []Count `json:"topTags"`
}

// Summary counts users per role, teams, projects and the five most used
// project tags
func (s *Seeder) Summary(ctx context.Context) (*Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.Users, err = s.total(ctx, "users"); err != nil {
		return nil, err
	}
	if sum.Teams, err = s.total(ctx, "teams"); err != nil {
		return nil, err
	}
	if sum.Projects, err = s.total(ctx, "projects"); err != nil {
		return nil, err
	}

	sum.UsersByRole, err = s.grouped(ctx, "users", 0,
		domain.Custom(domain.OpGroup, domain.Document{"_id": "$role", "count": domain.Document{"$sum": 1}}))
	if err != nil {
		return nil, err
	}
	sum.TopTags, err = s.grouped(ctx, "projects", 5,
		domain.Custom(domain.OpUnwind, "$tags"),
		domain.Custom(domain.OpGroup, domain.Document{"_id": "$tags", "count": domain.Document{"$sum": 1}}))
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Seeder) total(ctx context.Context, coll string) (int64, error) {
	page, err := s.acc.List(ctx, coll, accessor.ListOptions{Limit: 1, WithStats: true})
	if err != nil {
		return 0, err
	}
	return page.Stats.ItemsCount, nil
}

// grouped runs grouping stages producing {_id, count} and orders the
// buckets by count, then key
func (s *Seeder) grouped(ctx context.Context, coll string, limit int64, stages ...domain.Stage) ([]Count, error) {
	page, err := s.acc.List(ctx, coll, accessor.ListOptions{
		Stages: stages,
		Sort:   domain.SortBy("count", domain.Descending).Then("_id", domain.Ascending),
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	counts := make([]Count, 0, len(page.Items))
	for _, item := range page.Items {
		key := fmt.Sprint(item["_id"])
		n, _ := domain.AsInt64(item["count"])
		counts = append(counts, Count{Key: key, Count: n})
	}
	return counts, nil
}

// Print writes the summary in a human readable form
func (sum *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== SEEDING SUMMARY ===")
	fmt.Fprintf(w, "Users: %d total\n", sum.Users)
	for _, c := range sum.UsersByRole {
		fmt.Fprintf(w, "  - %s: %d\n", c.Key, c.Count)
	}
	fmt.Fprintf(w, "Teams: %d total\n", sum.Teams)
	fmt.Fprintf(w, "Projects: %d total\n", sum.Projects)
	fmt.Fprintln(w, "Popular tags:")
	for _, c := range sum.TopTags {
		fmt.Fprintf(w, "  - %s: %d\n", c.Key, c.Count)
	}
}
