package routing

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmsdlc/workshop-qa/catalog"
	"github.com/llmsdlc/workshop-qa/llm"
)

type stubLLM struct {
	response string
	err      error
	called   bool
}

func (s *stubLLM) Generate(_ context.Context, _ llm.Request) (string, error) {
	s.called = true
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var _ llm.Client = (*stubLLM)(nil)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRouteByKeyword(t *testing.T) {
	fallback := &stubLLM{}
	router := New(catalog.Default(), fallback, 2, testLogger())

	decision, err := router.Route(context.Background(), "What is generative ai?")
	require.NoError(t, err)

	assert.Equal(t, MethodKeyword, decision.Method)
	require.Len(t, decision.DocumentIDs, 2)
	assert.Equal(t, "WS1", decision.DocumentIDs[0])
	assert.False(t, fallback.called, "keyword hit must not reach the fallback classifier")
}

func TestRouteKeywordScoring(t *testing.T) {
	t.Run("exact phrase outranks partial words", func(t *testing.T) {
		question := "how do embeddings and vector stores work"
		router := New(catalog.Default(), nil, 2, testLogger())

		decision, err := router.Route(context.Background(), question)
		require.NoError(t, err)
		assert.Equal(t, MethodKeyword, decision.Method)
		assert.Equal(t, "WS5", decision.DocumentIDs[0])
	})

	t.Run("partial words of multi-word keywords score", func(t *testing.T) {
		score := scoreKeywords("something about retrieval techniques", []string{"information retrieval"})
		assert.Equal(t, 0.5, score)
	})

	t.Run("single-word keywords never partial match", func(t *testing.T) {
		score := scoreKeywords("debug my program", []string{"debugging"})
		assert.Equal(t, 0.0, score)
	})

	t.Run("exact match scores flat", func(t *testing.T) {
		score := scoreKeywords("tell me about prompt engineering", []string{"prompt engineering"})
		assert.Equal(t, 2.0, score)
	})
}

func TestRouteTieBreakKeepsCatalogOrder(t *testing.T) {
	cat := &catalog.Catalog{Workshops: []catalog.Workshop{
		{ID: "A", Keywords: []string{"shared topic"}},
		{ID: "B", Keywords: []string{"shared topic"}},
		{ID: "C", Keywords: []string{"other"}},
	}}
	router := New(cat, nil, 2, testLogger())

	decision, err := router.Route(context.Background(), "about the shared topic")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, decision.DocumentIDs)
}

func TestRoutePadsShortlist(t *testing.T) {
	router := New(catalog.Default(), nil, 2, testLogger())

	// Only WS2 scores; the shortlist still reaches two documents.
	decision, err := router.Route(context.Background(), "explain the system prompt")
	require.NoError(t, err)
	assert.Equal(t, MethodKeyword, decision.Method)
	require.Len(t, decision.DocumentIDs, 2)
	assert.Equal(t, "WS2", decision.DocumentIDs[0])
}

func TestRouteFallsBackToClassifier(t *testing.T) {
	fallback := &stubLLM{response: "ws3, ws7"}
	router := New(catalog.Default(), fallback, 2, testLogger())

	decision, err := router.Route(context.Background(), "xyzzy quux")
	require.NoError(t, err)

	assert.True(t, fallback.called)
	assert.Equal(t, MethodFallback, decision.Method)
	assert.Equal(t, []string{"WS3", "WS7"}, decision.DocumentIDs)
}

func TestRouteClassifierNone(t *testing.T) {
	fallback := &stubLLM{response: "NONE"}
	router := New(catalog.Default(), fallback, 2, testLogger())

	decision, err := router.Route(context.Background(), "xyzzy quux")
	require.NoError(t, err)
	assert.Equal(t, MethodNone, decision.Method)
	assert.Empty(t, decision.DocumentIDs)
}

func TestRouteClassifierErrorIsNotFatal(t *testing.T) {
	fallback := &stubLLM{err: errors.New("model unreachable")}
	router := New(catalog.Default(), fallback, 2, testLogger())

	decision, err := router.Route(context.Background(), "xyzzy quux")
	require.NoError(t, err)
	assert.Equal(t, MethodNone, decision.Method)
	assert.Empty(t, decision.DocumentIDs)
}

func TestRouteWithoutFallbackClient(t *testing.T) {
	router := New(catalog.Default(), nil, 2, testLogger())

	decision, err := router.Route(context.Background(), "xyzzy quux")
	require.NoError(t, err)
	assert.Equal(t, MethodNone, decision.Method)
	assert.Empty(t, decision.DocumentIDs)
}

func TestParseClassifierResponse(t *testing.T) {
	router := New(catalog.Default(), nil, 2, testLogger())

	t.Run("plain id list", func(t *testing.T) {
		assert.Equal(t, []string{"WS1", "WS3"}, router.parseClassifierResponse("WS1, WS3"))
	})

	t.Run("lowercase and noise words", func(t *testing.T) {
		assert.Equal(t, []string{"WS3"}, router.parseClassifierResponse("probably ws3 fits best"))
	})

	t.Run("unknown ids dropped", func(t *testing.T) {
		assert.Equal(t, []string{"WS2"}, router.parseClassifierResponse("WS9, WS2"))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		assert.Equal(t, []string{"WS2"}, router.parseClassifierResponse("WS2, WS2"))
	})

	t.Run("caps at max documents", func(t *testing.T) {
		assert.Equal(t, []string{"WS1", "WS2"}, router.parseClassifierResponse("WS1, WS2, WS3"))
	})

	t.Run("none wins over ids", func(t *testing.T) {
		assert.Nil(t, router.parseClassifierResponse("NONE"))
	})
}
