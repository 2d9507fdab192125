package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

type fakeSource struct {
	mu    sync.Mutex
	doc   *models.Corpus
	err   error
	loads atomic.Int32
	delay time.Duration
	saved *models.Corpus
}

func (f *fakeSource) LoadCorpus(ctx context.Context) (*models.Corpus, error) {
	f.loads.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, f.err
}

func (f *fakeSource) SaveCorpus(ctx context.Context, doc *models.Corpus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = doc
	return nil
}

func corpusOf(n int) *models.Corpus {
	doc := &models.Corpus{ExtractedAt: "2024-01-02 03:04:05", TotalPatterns: n}
	for i := 0; i < n; i++ {
		doc.Patterns = append(doc.Patterns, models.PatternRecord{
			DecisionMade:   "decision",
			RegretSeverity: models.IntPtr(i%10 + 1),
		})
	}
	return doc
}

func TestStore_NotReady(t *testing.T) {
	s := NewStore(nil)
	assert.False(t, s.Ready())
	assert.Nil(t, s.Snapshot())

	_, err := s.Reload(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestStore_ReplaceCopiesPatterns(t *testing.T) {
	doc := corpusOf(3)
	s := NewStore(nil)
	snap := s.Replace(doc)

	doc.Patterns[0].DecisionMade = "mutated"
	assert.Equal(t, "decision", snap.Patterns[0].DecisionMade)
	assert.True(t, s.Ready())
	assert.Equal(t, 3, s.Snapshot().Len())
	assert.Equal(t, "2024-01-02 03:04:05", snap.ExtractedAt)
}

func TestStore_ReloadSwapsVersion(t *testing.T) {
	src := &fakeSource{doc: corpusOf(2)}
	s := NewStore(src)

	first, err := s.Reload(context.Background())
	require.NoError(t, err)

	src.mu.Lock()
	src.doc = corpusOf(5)
	src.mu.Unlock()

	second, err := s.Reload(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Version, second.Version)
	assert.Equal(t, 2, first.Len(), "old snapshot must stay intact")
	assert.Equal(t, 5, s.Snapshot().Len())
}

func TestStore_ReloadFailureKeepsPrevious(t *testing.T) {
	src := &fakeSource{doc: corpusOf(2)}
	s := NewStore(src)
	_, err := s.Reload(context.Background())
	require.NoError(t, err)
	before := s.Snapshot()

	src.mu.Lock()
	src.err = errors.New("disk gone")
	src.mu.Unlock()

	var gotErr error
	s.OnLoad(func(n int, err error) { gotErr = err })

	_, err = s.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, before, s.Snapshot())
	assert.Error(t, gotErr)
}

func TestStore_ConcurrentReloadsShareFetch(t *testing.T) {
	src := &fakeSource{doc: corpusOf(1), delay: 50 * time.Millisecond}
	s := NewStore(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Reload(context.Background())
		}()
	}
	wg.Wait()

	assert.Less(t, int(src.loads.Load()), 8)
	assert.True(t, s.Ready())
}

func TestStore_ReadersSeeWholeSnapshots(t *testing.T) {
	s := NewStore(nil)
	s.Replace(corpusOf(10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for i := 0; ctx.Err() == nil; i++ {
			if i%2 == 0 {
				s.Replace(corpusOf(10))
			} else {
				s.Replace(corpusOf(20))
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		snap := s.Snapshot()
		n := snap.Len()
		assert.Contains(t, []int{10, 20}, n)
		assert.Len(t, snap.Patterns, n)
	}
}

func TestStore_Save(t *testing.T) {
	src := &fakeSource{}
	s := NewStore(src)

	snap, err := s.Save(context.Background(), corpusOf(4))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Len())
	assert.NotNil(t, src.saved)
	assert.Same(t, snap, s.Snapshot())
}

func TestFileSource_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "patterns.json")
	src := NewFileSource(path)

	doc := corpusOf(3)
	doc.Patterns[1].AgeWhenDecided = models.IntPtr(29)
	doc.Patterns[1].DecisionCategory = models.CategoryCareer
	require.NoError(t, src.SaveCorpus(context.Background(), doc))

	got, err := src.LoadCorpus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, doc.ExtractedAt, got.ExtractedAt)
	require.Len(t, got.Patterns, 3)
	assert.Equal(t, 29, got.Patterns[1].DecidedAge())
	assert.Nil(t, got.Patterns[0].AgeWhenDecided)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileSource_NullPatternsBecomeEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"extracted_at":"x","total_patterns":0,"patterns":null}`), 0o644))

	got, err := NewFileSource(path).LoadCorpus(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.Patterns)
	assert.Empty(t, got.Patterns)
}

func TestFileSource_Errors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).LoadCorpus(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = NewFileSource(path).LoadCorpus(context.Background())
	assert.Error(t, err)
}

func TestReadStories_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.json")
	body := `{"scraped_at":"now","total_posts":3,"posts":[{"id":"a"},{"id":"b"},{"id":"c"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	posts, err := ReadStories(path, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[1].ID)

	all, err := ReadStories(path, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem watcher test")
	}
	path := filepath.Join(t.TempDir(), "patterns.json")
	src := NewFileSource(path)
	require.NoError(t, src.SaveCorpus(context.Background(), corpusOf(1)))

	s := NewStore(src)
	_, err := s.Reload(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, s, 20*time.Millisecond) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, src.SaveCorpus(context.Background(), corpusOf(7)))

	assert.Eventually(t, func() bool {
		return s.Snapshot().Len() == 7
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
