package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// AnalysisKey addresses a cached analysis. Keys are scoped to a corpus snapshot
// so a reload never serves results computed against the previous corpus.
func AnalysisKey(corpusVersion uuid.UUID, q models.UserQuery) string {
	return fmt.Sprintf("analysis:%s:%s", corpusVersion, QueryHash(q))
}

// QueryHash is a stable digest of the canonical form of q.
func QueryHash(q models.UserQuery) string {
	q.Category = q.EffectiveCategory()
	// Marshalling a struct of strings and ints cannot fail.
	b, _ := json.Marshal(q)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16])
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
