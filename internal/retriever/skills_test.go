package retriever

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/praxis/droneflow/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

type stubGenerator struct {
	raw json.RawMessage
	err error
}

func (s *stubGenerator) GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (json.RawMessage, error) {
	return s.raw, s.err
}

type stubSearcher struct {
	byQuery map[string][]vectorstore.Hit
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, embedding []float32, topK int, threshold float64, filters vectorstore.Filters) ([]vectorstore.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byQuery["default"], nil
}

func TestRetrieve_FiltersSortsAndTruncates(t *testing.T) {
	searcher := &stubSearcher{byQuery: map[string][]vectorstore.Hit{
		"default": {
			{ChunkID: "1", ChunkText: "low", Score: 0.3},
			{ChunkID: "2", ChunkText: "high", Score: 0.9},
			{ChunkID: "3", ChunkText: "mid", Score: 0.6},
		},
	}}
	s := New(&stubEmbedder{vec: []float32{0.1}}, &stubGenerator{}, searcher, nil)

	result, err := s.Retrieve(context.Background(), "query", 2, Filters{})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "high", result.Hits[0].ChunkText)
	assert.Equal(t, "mid", result.Hits[1].ChunkText)
}

func TestRetrieve_EmbedError(t *testing.T) {
	s := New(&stubEmbedder{err: assertErr("boom")}, &stubGenerator{}, &stubSearcher{}, nil)
	_, err := s.Retrieve(context.Background(), "query", 5, Filters{})
	assert.Error(t, err)
}

func TestSmartRetrieve_FallsBackOnModelError(t *testing.T) {
	searcher := &stubSearcher{byQuery: map[string][]vectorstore.Hit{
		"default": {{ChunkID: "1", ChunkText: "a", Score: 0.8}},
	}}
	s := New(&stubEmbedder{vec: []float32{0.1}}, &stubGenerator{err: assertErr("model down")}, searcher, nil)

	result, err := s.SmartRetrieve(context.Background(), "fly to point 7", Filters{})
	require.NoError(t, err)
	assert.Empty(t, result.Intent.Targets)
	assert.Equal(t, "fly to point 7", result.Intent.OriginalQuery)
	assert.NotEmpty(t, result.Hits)
}

func TestSmartRetrieve_DecomposesAndMerges(t *testing.T) {
	searcher := &stubSearcher{byQuery: map[string][]vectorstore.Hit{
		"default": {{ChunkID: "1", ChunkText: "dup", Score: 0.7}, {ChunkID: "2", ChunkText: "dup", Score: 0.9}},
	}}
	gen := &stubGenerator{raw: json.RawMessage(`{"targets": ["7号"], "reasoning": "numeric id"}`)}
	s := New(&stubEmbedder{vec: []float32{0.1}}, gen, searcher, nil)

	result, err := s.SmartRetrieve(context.Background(), "fly to point 7", Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"7号"}, result.Intent.Targets)
	assert.Equal(t, "fly to point 7", result.Intent.OriginalQuery)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 0.9, result.Hits[0].Score)
}

func TestRetrieveMissing_BestVariationWins(t *testing.T) {
	searcher := &stubSearcher{byQuery: map[string][]vectorstore.Hit{
		"default": {{ChunkID: "1", ChunkText: "variant hit", Score: 0.55}},
	}}
	s := New(&stubEmbedder{vec: []float32{0.1}}, &stubGenerator{}, searcher, nil)

	result, err := s.RetrieveMissing(context.Background(), []string{"7"}, Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hits)
}

func TestVariations_NumericID(t *testing.T) {
	vs := variations("7")
	assert.Contains(t, vs, "7")
	assert.Contains(t, vs, "7号")
	assert.Contains(t, vs, "编号7")
}

func TestVariations_NumericIDWithMeasureWord(t *testing.T) {
	vs := variations("3号")
	assert.Contains(t, vs, "3号")
	assert.Contains(t, vs, "3")
	assert.Contains(t, vs, "编号3")
	assert.Contains(t, vs, "第3号")
}

func TestVariations_LandingPad(t *testing.T) {
	vs := variations("着陆")
	assert.Contains(t, vs, "landing")
	assert.Contains(t, vs, "黑白")
}

func TestVariations_PlainTarget(t *testing.T) {
	assert.Equal(t, []string{"red square"}, variations("red square"))
}

type errString string

func (e errString) Error() string { return string(e) }

func assertErr(msg string) error { return errString(msg) }
