package seeder

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/storage"
)

func newTestSeeder(t *testing.T) (*Seeder, *accessor.Accessor) {
	t.Helper()
	acc := accessor.New(storage.NewStorageEngine())
	return New(acc, nil), acc
}

func TestSeedAll(t *testing.T) {
	s, acc := newTestSeeder(t)
	ctx := context.Background()

	res, err := s.SeedAll(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Users, 8)
	assert.Len(t, res.Teams, 5)
	assert.Len(t, res.Projects, 8)

	for _, u := range res.Users {
		assert.NotEmpty(t, u.PID())
		assert.Equal(t, Actor, u[domain.FieldCreatedBy])
	}

	// Frontend Team is the first developer and both designers
	frontend := res.Teams[0]
	assert.Equal(t, "Frontend Team", frontend["name"])
	assert.Equal(t, []interface{}{res.Users[1].PID(), res.Users[2].PID(), res.Users[6].PID()}, frontend["members"])

	project, err := acc.GetByAttributes(ctx, "projects", domain.Attributes{"name": "Mobile App Development"}, domain.AllFields())
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, []interface{}{res.Teams[4].PID()}, project["teams"])
}

func TestSeedAllTwiceReplacesData(t *testing.T) {
	s, _ := newTestSeeder(t)
	ctx := context.Background()

	_, err := s.SeedAll(ctx)
	require.NoError(t, err)
	_, err = s.SeedAll(ctx)
	require.NoError(t, err)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 8, sum.Users)
	assert.EqualValues(t, 5, sum.Teams)
	assert.EqualValues(t, 8, sum.Projects)
}

func TestSummary(t *testing.T) {
	s, _ := newTestSeeder(t)
	ctx := context.Background()

	_, err := s.SeedAll(ctx)
	require.NoError(t, err)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Count{
		{Key: "developer", Count: 3},
		{Key: "designer", Count: 2},
		{Key: "admin", Count: 1},
		{Key: "manager", Count: 1},
		{Key: "tester", Count: 1},
	}, sum.UsersByRole)
	assert.Equal(t, []Count{
		{Key: "urgent", Count: 3},
		{Key: "backend", Count: 2},
		{Key: "frontend", Count: 2},
		{Key: "analytics", Count: 1},
		{Key: "api", Count: 1},
	}, sum.TopTags)

	var buf bytes.Buffer
	sum.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Users: 8 total")
	assert.Contains(t, out, "  - developer: 3")
	assert.Contains(t, out, "Projects: 8 total")
	assert.Contains(t, out, "  - urgent: 3")
}

func TestSummaryEmpty(t *testing.T) {
	s, _ := newTestSeeder(t)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Users)
	assert.Empty(t, sum.UsersByRole)
	assert.Empty(t, sum.TopTags)
}

func TestSample(t *testing.T) {
	s, _ := newTestSeeder(t)
	ctx := context.Background()

	_, err := s.SeedAll(ctx)
	require.NoError(t, err)

	items, err := s.Sample(ctx, "users", 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Alice Martin", items[0]["name"])
	assert.Contains(t, items[0], "email")
}
