package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// FileSource reads and writes the corpus as a JSON document on disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) LoadCorpus(_ context.Context) (*models.Corpus, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var doc models.Corpus
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	if doc.Patterns == nil {
		doc.Patterns = []models.PatternRecord{}
	}
	return &doc, nil
}

// SaveCorpus writes doc atomically: a temp file in the same directory is renamed over Path.
func (f *FileSource) SaveCorpus(_ context.Context, doc *models.Corpus) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".corpus-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// ReadStories loads a raw story collection, keeping at most limit posts (limit <= 0 keeps all).
func ReadStories(path string, limit int) ([]models.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var coll models.StoryCollection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	posts := coll.Posts
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
