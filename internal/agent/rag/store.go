package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/convopilot-core/server/internal/agent/model"
	errx "github.com/convopilot-core/server/internal/core/error"
	logx "github.com/convopilot-core/server/pkg/logger"
)

const chunkIndexKey = "kb:chunks"

// storedChunk is the persisted form of an indexed passage.
type storedChunk struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float32         `json:"embedding"`
}

// RedisSemanticStore keeps embedded knowledge chunks in Redis and ranks them
// by cosine similarity at query time. The corpus is expected to stay small
// enough to scan; a dedicated vector database sits behind the same
// SemanticStore contract when that stops being true.
type RedisSemanticStore struct {
	rdb      redis.Cmdable
	embedder Embedder
}

func NewRedisSemanticStore(rdb redis.Cmdable, embedder Embedder) *RedisSemanticStore {
	return &RedisSemanticStore{rdb: rdb, embedder: embedder}
}

func (s *RedisSemanticStore) chunkKey(id string) string {
	return fmt.Sprintf("kb:chunk:%s", id)
}

// chunkID derives a stable id from the passage content, so re-indexing the
// same passage overwrites its record instead of duplicating it.
func chunkID(content string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(content)).String()
}

// IndexChunk embeds and stores one passage. Indexing is idempotent per
// content: seeding the same corpus on every startup leaves one record per
// passage.
func (s *RedisSemanticStore) IndexChunk(ctx context.Context, content string, metadata map[string]string) error {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return err
	}
	chunk := storedChunk{
		ID:        chunkID(content),
		Content:   content,
		Metadata:  metadata,
		Embedding: vec,
	}
	b, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}
	if err := s.rdb.Set(ctx, s.chunkKey(chunk.ID), b, 0).Err(); err != nil {
		logx.Error().Err(err).Str("chunk_id", chunk.ID).Msg("failed to store chunk in redis")
		return errx.WrapRedis(err)
	}
	if err := s.rdb.SAdd(ctx, chunkIndexKey, chunk.ID).Err(); err != nil {
		logx.Error().Err(err).Str("chunk_id", chunk.ID).Msg("failed to index chunk")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisSemanticStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]model.Chunk, error) {
	if k <= 0 {
		k = 3
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	ids, err := s.rdb.SMembers(ctx, chunkIndexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Msg("failed to list chunk ids from redis")
		return nil, errx.WrapRedis(err)
	}

	chunks := make([]storedChunk, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, s.chunkKey(id)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // index entry without a value; skip
			}
			return nil, errx.WrapRedis(err)
		}
		var c storedChunk
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			logx.Warn().Err(err).Str("chunk_id", id).Msg("skipping malformed chunk")
			continue
		}
		chunks = append(chunks, c)
	}

	return rank(queryVec, chunks, k, filter), nil
}

// rank scores chunks against the query vector and returns the top k that
// match the metadata filter, best first.
func rank(queryVec []float32, chunks []storedChunk, k int, filter map[string]string) []model.Chunk {
	scored := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !metadataMatches(c.Metadata, filter) {
			continue
		}
		scored = append(scored, model.Chunk{
			Content:  c.Content,
			Metadata: c.Metadata,
			Score:    cosineSimilarity(queryVec, c.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func metadataMatches(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// cosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either has no magnitude or the dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ model.SemanticStore = (*RedisSemanticStore)(nil)
