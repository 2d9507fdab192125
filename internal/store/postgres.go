package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func scanAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	keys := []*models.APIKey{}
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	scopes := key.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Corpus ---

var patternColumns = []string{
	"position", "age_when_decided", "age_when_regret_felt", "decision_made", "situation_context",
	"regret_severity", "regret_reason", "pattern_tags", "decision_category",
	"source_post_id", "source_subreddit", "original_score",
}

// LoadCorpus returns the stored corpus in its original order.
// ErrNotFound means no corpus has been imported yet.
func (s *PostgresStore) LoadCorpus(ctx context.Context) (*models.Corpus, error) {
	var doc models.Corpus
	err := s.pool.QueryRow(ctx,
		`SELECT extracted_at, total_patterns FROM corpus_meta WHERE id = 1`,
	).Scan(&doc.ExtractedAt, &doc.TotalPatterns)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get corpus meta: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT age_when_decided, age_when_regret_felt, decision_made, situation_context,
		        regret_severity, regret_reason, pattern_tags, decision_category,
		        source_post_id, source_subreddit, original_score
		 FROM patterns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	doc.Patterns = []models.PatternRecord{}
	for rows.Next() {
		var p models.PatternRecord
		var category string
		if err := rows.Scan(&p.AgeWhenDecided, &p.AgeWhenRegretFelt, &p.DecisionMade, &p.SituationContext,
			&p.RegretSeverity, &p.RegretReason, &p.PatternTags, &category,
			&p.SourcePostID, &p.SourceSubreddit, &p.OriginalScore); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		p.DecisionCategory = models.Category(category)
		doc.Patterns = append(doc.Patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	return &doc, nil
}

// SaveCorpus replaces the stored corpus in one transaction.
func (s *PostgresStore) SaveCorpus(ctx context.Context, doc *models.Corpus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin corpus save: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM patterns`); err != nil {
		return fmt.Errorf("clear patterns: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"patterns"}, patternColumns,
		pgx.CopyFromSlice(len(doc.Patterns), func(i int) ([]any, error) {
			p := doc.Patterns[i]
			tags := p.PatternTags
			if tags == nil {
				tags = []string{}
			}
			return []any{
				i, p.AgeWhenDecided, p.AgeWhenRegretFelt, p.DecisionMade, p.SituationContext,
				p.RegretSeverity, p.RegretReason, tags, string(p.DecisionCategory),
				p.SourcePostID, p.SourceSubreddit, p.OriginalScore,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy patterns: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO corpus_meta (id, extracted_at, total_patterns, updated_at)
		 VALUES (1, $1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   extracted_at = EXCLUDED.extracted_at,
		   total_patterns = EXCLUDED.total_patterns,
		   updated_at = NOW()`,
		doc.ExtractedAt, len(doc.Patterns))
	if err != nil {
		return fmt.Errorf("upsert corpus meta: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit corpus save: %w", err)
	}
	return nil
}

// --- Analyses ---

func (s *PostgresStore) CreateAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	query, err := json.Marshal(rec.Query)
	if err != nil {
		return fmt.Errorf("encode analysis query: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("encode analysis result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, query, result, degraded, error_message, patterns_analyzed, provider, corpus_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, query, result, rec.Degraded, rec.ErrorMessage, rec.PatternsAnalyzed,
		rec.Provider, rec.CorpusVersion, rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	var (
		rec           models.AnalysisRecord
		query, result []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, query, result, degraded, error_message, patterns_analyzed, provider, corpus_version, created_at
		 FROM analyses WHERE id = $1`, id,
	).Scan(&rec.ID, &query, &result, &rec.Degraded, &rec.ErrorMessage, &rec.PatternsAnalyzed,
		&rec.Provider, &rec.CorpusVersion, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	if err := json.Unmarshal(query, &rec.Query); err != nil {
		return nil, fmt.Errorf("decode analysis query: %w", err)
	}
	rec.Result = &models.AnalysisResult{}
	if err := json.Unmarshal(result, rec.Result); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	return &rec, nil
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, type, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.Type, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var (
		j      models.Job
		result []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, type, status, result, error_message, started_at, completed_at, created_at, updated_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Type, &j.Status, &result, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(result) > 0 {
		j.Result = json.RawMessage(result)
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning, models.JobStatusFailed},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	// Fetch current status
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	if !slices.Contains(validTransitions[currentStatus], status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.Result != nil {
		query += fmt.Sprintf(", result = $%d", argIdx)
		args = append(args, []byte(params.Result))
		argIdx++
	}

	query += " WHERE id = $1"

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
