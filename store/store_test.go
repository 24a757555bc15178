package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/model"
)

func analysis() *model.MeetingAnalysis {
	return &model.MeetingAnalysis{
		MeetingID:       "m-42",
		SourceType:      model.SourceTeams,
		Duration:        15,
		CreatedAt:       time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		Speakers:        []string{"S1"},
		EngagementScore: 61.5,
	}
}

func TestFileSinkWritesNewRecordEachTime(t *testing.T) {
	root := filepath.Join(t.TempDir(), "outputs")
	s, err := NewFileSink(root)
	require.NoError(t, err)

	p1, err := s.Save(context.Background(), analysis())
	require.NoError(t, err)
	p2, err := s.Save(context.Background(), analysis())
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, filepath.Join(root, "m-42"), filepath.Dir(p1))

	b, err := os.ReadFile(p1)
	require.NoError(t, err)
	var got model.MeetingAnalysis
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "m-42", got.MeetingID)
	assert.Equal(t, 61.5, got.EngagementScore)

	entries, err := os.ReadDir(filepath.Dir(p1))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestFileSinkCancelled(t *testing.T) {
	s, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, analysis())
	require.Error(t, err)
	assert.True(t, apperr.Fatal(err))
}

func TestOpen(t *testing.T) {
	c := config.Default().Store
	c.Outputs = t.TempDir()
	s, closeFn, err := Open(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, s)
	assert.NoError(t, closeFn(context.Background()))

	c.Kind = "sqlite"
	_, _, err = Open(context.Background(), c)
	assert.True(t, apperr.IsKind(err, apperr.KindInput))
}

func TestMongoSink(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save inserts a document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		id, err := NewMongoSink(mt.Coll).Save(context.Background(), analysis())
		require.NoError(mt, err)
		assert.Len(mt, id, 24)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("save reports persistence errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))
		_, err := NewMongoSink(mt.Coll).Save(context.Background(), analysis())
		require.Error(mt, err)
		assert.True(mt, apperr.IsKind(err, apperr.KindPersistence))
		assert.True(mt, apperr.Fatal(err))
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, NewMongoSink(mt.Coll).EnsureIndexes(context.Background()))
		assert.Equal(mt, "createIndexes", mt.GetStartedEvent().CommandName)
	})

	mt.Run("sets created_at when missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		m := analysis()
		m.CreatedAt = time.Time{}
		_, err := NewMongoSink(mt.Coll).Save(context.Background(), m)
		require.NoError(mt, err)
		assert.False(mt, m.CreatedAt.IsZero())
	})
}
