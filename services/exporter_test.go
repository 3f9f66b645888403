package services

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reaction-hand/models"
)

type sliceJournal struct {
	entries []models.ReactionLog
	calls   int
}

func (j *sliceJournal) ListSince(_ context.Context, since time.Time, afterID uint, limit int) ([]models.ReactionLog, error) {
	j.calls++
	var page []models.ReactionLog
	for _, e := range j.entries {
		if e.CreatedAt.After(since) && e.ID > afterID {
			page = append(page, e)
			if len(page) == limit {
				break
			}
		}
	}
	return page, nil
}

type memoryStore struct {
	objects   map[string][]byte
	deleted   []string
	pageSize  int
	deleteErr map[string]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, pageSize: 1000}
}

func (s *memoryStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (s *memoryStore) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := start + s.pageSize
	truncated := end < len(keys)
	if !truncated {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(truncated)}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if truncated {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (s *memoryStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	if err := s.deleteErr[key]; err != nil {
		return nil, err
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func journalEntries(n int, start time.Time) []models.ReactionLog {
	entries := make([]models.ReactionLog, n)
	for i := range entries {
		entries[i] = models.ReactionLog{
			ID:        uint(i + 1),
			CreatedAt: start.Add(time.Duration(i) * time.Second),
			Query:     fmt.Sprintf("H%d", i),
			Outcome:   "reaction",
		}
	}
	return entries
}

func readExport(t *testing.T, data []byte) []models.ReactionLog {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer zr.Close()

	var out []models.ReactionLog
	scanner := bufio.NewScanner(zr)
	for scanner.Scan() {
		var entry models.ReactionLog
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		out = append(out, entry)
	}
	require.NoError(t, scanner.Err())
	return out
}

func newTestExporter(journal JournalReader, store ObjectStore) *Exporter {
	e := NewExporter(journal, store, "bucket", "/journal/", zap.NewNop())
	e.Now = func() time.Time { return time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC) }
	return e
}

func TestExportWritesGzipJSONL(t *testing.T) {
	start := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	journal := &sliceJournal{entries: journalEntries(exportPageSize+3, start)}
	store := newMemoryStore()
	e := newTestExporter(journal, store)

	result, err := e.Export(context.Background(), start)
	require.NoError(t, err)

	// Der erste Eintrag liegt genau auf since und wird ausgelassen.
	assert.Equal(t, exportPageSize+2, result.Entries)
	assert.Equal(t, "journal/reactions-2026-10-18T03-00-00Z.jsonl.gz", result.Key)
	assert.Equal(t, 2, journal.calls)

	exported := readExport(t, store.objects[result.Key])
	require.Len(t, exported, exportPageSize+2)
	assert.Equal(t, uint(2), exported[0].ID)
	assert.Equal(t, "H1", exported[0].Query)
	assert.Equal(t, uint(exportPageSize+3), exported[len(exported)-1].ID)
}

func TestExportEmptyWindowUploadsNothing(t *testing.T) {
	store := newMemoryStore()
	e := newTestExporter(&sliceJournal{}, store)

	result, err := e.Export(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.Entries)
	assert.Empty(t, result.Key)
	assert.Empty(t, store.objects)
}

func TestRotateKeepsNewest(t *testing.T) {
	store := newMemoryStore()
	store.pageSize = 2
	for day := 1; day <= 5; day++ {
		store.objects[fmt.Sprintf("journal/reactions-2026-10-%02dT03-00-00Z.jsonl.gz", day)] = []byte("x")
	}
	store.objects["other/reactions-2026-09-01T03-00-00Z.jsonl.gz"] = []byte("x")
	e := newTestExporter(&sliceJournal{}, store)

	deleted, err := e.Rotate(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{
		"journal/reactions-2026-10-01T03-00-00Z.jsonl.gz",
		"journal/reactions-2026-10-02T03-00-00Z.jsonl.gz",
	}, store.deleted)
	assert.Contains(t, store.objects, "other/reactions-2026-09-01T03-00-00Z.jsonl.gz")
}

func TestRotateNothingToDo(t *testing.T) {
	store := newMemoryStore()
	store.objects["journal/reactions-2026-10-01T03-00-00Z.jsonl.gz"] = []byte("x")
	e := newTestExporter(&sliceJournal{}, store)

	deleted, err := e.Rotate(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, store.deleted)
}

func TestRotateContinuesAfterDeleteError(t *testing.T) {
	store := newMemoryStore()
	for day := 1; day <= 3; day++ {
		store.objects[fmt.Sprintf("journal/reactions-2026-10-%02dT03-00-00Z.jsonl.gz", day)] = []byte("x")
	}
	store.deleteErr = map[string]error{
		"journal/reactions-2026-10-01T03-00-00Z.jsonl.gz": errors.New("access denied"),
	}
	e := newTestExporter(&sliceJournal{}, store)

	deleted, err := e.Rotate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"journal/reactions-2026-10-02T03-00-00Z.jsonl.gz"}, store.deleted)
}

func TestExportSkipsEntriesAfterCutoff(t *testing.T) {
	cutoff := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	journal := &sliceJournal{entries: []models.ReactionLog{
		{ID: 1, CreatedAt: cutoff.Add(-time.Minute), Query: "H2+O2", Outcome: "reaction"},
		{ID: 2, CreatedAt: cutoff.Add(time.Minute), Query: "Na+Cl2", Outcome: "reaction"},
	}}
	store := newMemoryStore()
	e := newTestExporter(journal, store)

	result, err := e.Export(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Entries)

	exported := readExport(t, store.objects[result.Key])
	require.Len(t, exported, 1)
	assert.Equal(t, "H2+O2", exported[0].Query)
}

func TestLastExport(t *testing.T) {
	store := newMemoryStore()
	store.objects["journal/reactions-2026-10-01T03-00-00Z.jsonl.gz"] = []byte("x")
	store.objects["journal/reactions-2026-10-03T03-00-00Z.jsonl.gz"] = []byte("x")
	store.objects["journal/reactions-latest.jsonl.gz"] = []byte("x")
	e := newTestExporter(&sliceJournal{}, store)

	last, err := e.LastExport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 3, 3, 0, 0, 0, time.UTC), last)

	empty := newTestExporter(&sliceJournal{}, newMemoryStore())
	last, err = empty.LastExport(context.Background())
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestRunExportsSinceLastExportAndRotates(t *testing.T) {
	previous := time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)
	journal := &sliceJournal{entries: []models.ReactionLog{
		{ID: 1, CreatedAt: previous.Add(-time.Hour), Query: "old", Outcome: "reaction"},
		{ID: 2, CreatedAt: previous.Add(time.Hour), Query: "new", Outcome: "no_reaction"},
	}}
	store := newMemoryStore()
	store.objects["journal/reactions-2026-10-16T03-00-00Z.jsonl.gz"] = []byte("x")
	store.objects["journal/reactions-2026-10-17T03-00-00Z.jsonl.gz"] = []byte("x")
	e := newTestExporter(journal, store)

	result, err := e.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Entries)
	exported := readExport(t, store.objects[result.Key])
	require.Len(t, exported, 1)
	assert.Equal(t, "new", exported[0].Query)
	assert.Equal(t, []string{"journal/reactions-2026-10-16T03-00-00Z.jsonl.gz"}, store.deleted)
}
