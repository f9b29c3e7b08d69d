package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blevesearch/bleve"
	"github.com/dream-ai/docuchat/internal/documents"
	"github.com/dream-ai/docuchat/internal/logging"
	"github.com/dream-ai/docuchat/internal/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto two axes: mentions of france and of italy.
type keywordEmbedder struct {
	failAll bool
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failAll {
		return nil, errors.New("embedding model not loaded")
	}
	lower := strings.ToLower(text)
	var v [2]float32
	if strings.Contains(lower, "france") || strings.Contains(lower, "paris") {
		v[0] = 1
	}
	if strings.Contains(lower, "italy") || strings.Contains(lower, "rome") {
		v[1] = 1
	}
	return v[:], nil
}

type recordingModel struct {
	calls   int
	prompts []string
}

func (m *recordingModel) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return "answer", nil
}

func (m *recordingModel) Name() string { return "recording" }

func testDeps(e *keywordEmbedder, m *recordingModel, topK int, pages ...documents.Page) Deps {
	return Deps{
		Embedder: e,
		Model:    m,
		Splitter: documents.NewSplitter(60, 0),
		TopK:     topK,
		Logger:   logging.New("error"),
		Extract:  func([]byte) ([]documents.Page, error) { return pages, nil },
	}
}

func TestResponder_VectorSearch(t *testing.T) {
	model := &recordingModel{}
	deps := testDeps(&keywordEmbedder{}, model, 1, documents.Page{
		Number: 1,
		Text:   "Paris is the capital of France.\n\nRome is the capital of Italy.",
	})

	r, err := NewResponder(context.Background(), []byte("%PDF"), deps)
	require.NoError(t, err)

	answer, err := r.Ask(context.Background(), "What is the capital of Italy?")
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
	require.Equal(t, 1, model.calls)
	assert.Contains(t, model.prompts[0], "Document 1:\nRome is the capital of Italy.")
	assert.NotContains(t, model.prompts[0], "Paris")
}

func TestResponder_KeywordFallbackWhenNothingEmbedded(t *testing.T) {
	model := &recordingModel{}
	deps := testDeps(&keywordEmbedder{failAll: true}, model, 5, documents.Page{
		Number: 1,
		Text:   "Paris is the capital of France.\n\nBananas are yellow and curved.",
	})

	r, err := NewResponder(context.Background(), []byte("%PDF"), deps)
	require.NoError(t, err)

	_, err = r.Ask(context.Background(), "bananas")
	require.NoError(t, err)
	require.Equal(t, 1, model.calls)
	assert.Contains(t, model.prompts[0], "Bananas are yellow")
	assert.NotContains(t, model.prompts[0], "Paris")

	answer, err := r.Ask(context.Background(), "submarine")
	require.NoError(t, err)
	assert.Equal(t, rag.NoInformationAnswer, answer)
	assert.Equal(t, 1, model.calls)
}

func TestResponder_NoTextFails(t *testing.T) {
	deps := testDeps(&keywordEmbedder{}, &recordingModel{}, 5)
	_, err := NewResponder(context.Background(), []byte("%PDF"), deps)
	assert.Error(t, err)
}

// bleveIndex names the embedded field so it does not shadow the Index method.
type bleveIndex = bleve.Index

type failingBatchIndex struct {
	bleveIndex
	closed bool
}

func (f *failingBatchIndex) Batch(*bleve.Batch) error { return errors.New("index full") }

func (f *failingBatchIndex) Close() error {
	f.closed = true
	return f.bleveIndex.Close()
}

func TestResponder_ClosesKeywordIndexOnFailure(t *testing.T) {
	var ix *failingBatchIndex
	orig := newKeywordIndex
	newKeywordIndex = func() (bleve.Index, error) {
		inner, err := orig()
		if err != nil {
			return nil, err
		}
		ix = &failingBatchIndex{bleveIndex: inner}
		return ix, nil
	}
	t.Cleanup(func() { newKeywordIndex = orig })

	deps := testDeps(&keywordEmbedder{}, &recordingModel{}, 5, documents.Page{Number: 0, Text: "Paris is in France."})
	_, err := NewResponder(context.Background(), []byte("%PDF"), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index full")
	require.NotNil(t, ix)
	assert.True(t, ix.closed)
}

func TestVectorIndex_Order(t *testing.T) {
	ix := &vectorIndex{}
	ix.Add(0, []float32{0, 1})
	ix.Add(1, []float32{1, 0})
	ix.Add(2, []float32{1, 1})

	assert.Equal(t, []int{1, 2}, ix.Search([]float32{1, 0}, 2))
	assert.Len(t, ix.Search([]float32{1, 0}, 10), 3)
	assert.InDelta(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}), 1e-9)
}
