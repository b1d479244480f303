package metadata_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/metadata"
)

func TestCreationMetadata(t *testing.T) {
	svc := metadata.NewService()

	meta := svc.Creation("alice")

	pid, ok := meta[domain.FieldPID].(string)
	require.True(t, ok)
	parsed, err := uuid.Parse(pid)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	createdAt, ok := meta[domain.FieldCreatedAt].(time.Time)
	require.True(t, ok)
	assert.Equal(t, createdAt, meta[domain.FieldUpdatedAt])
	assert.Equal(t, time.UTC, createdAt.Location())
	assert.Equal(t, "alice", meta[domain.FieldCreatedBy])
	assert.NotContains(t, meta, domain.FieldUpdatedBy)
}

func TestCreationWithoutActor(t *testing.T) {
	meta := metadata.NewService().Creation("")

	assert.Len(t, meta, 3)
	assert.NotContains(t, meta, domain.FieldCreatedBy)
}

func TestCreationGeneratesDistinctPIDs(t *testing.T) {
	svc := metadata.NewService()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pid := svc.Creation("").PID()
		assert.False(t, seen[pid], "duplicate pid %s", pid)
		seen[pid] = true
	}
}

func TestUpdateMetadata(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.FixedZone("CET", 3600))
	svc := metadata.NewService(metadata.WithClock(func() time.Time { return fixed }))

	tests := []struct {
		name     string
		actor    string
		expected domain.Document
	}{
		{
			name:  "with actor",
			actor: "bob",
			expected: domain.Document{
				domain.FieldUpdatedAt: time.Date(2024, 3, 1, 11, 30, 0, 123000000, time.UTC),
				domain.FieldUpdatedBy: "bob",
			},
		},
		{
			name:  "without actor",
			actor: "",
			expected: domain.Document{
				domain.FieldUpdatedAt: time.Date(2024, 3, 1, 11, 30, 0, 123000000, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, svc.Update(tt.actor))
		})
	}
}

func TestInjectedPIDGenerator(t *testing.T) {
	n := 0
	svc := metadata.NewService(metadata.WithPIDGenerator(func() string {
		n++
		return "pid-" + string(rune('0'+n))
	}))

	assert.Equal(t, "pid-1", svc.Creation("").PID())
	assert.Equal(t, "pid-2", svc.Creation("").PID())
}
