package sessions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve"
	"github.com/dream-ai/docuchat/internal/documents"
	"github.com/dream-ai/docuchat/internal/embeddings"
	"github.com/dream-ai/docuchat/internal/llm"
	"github.com/dream-ai/docuchat/internal/metrics"
	"github.com/dream-ai/docuchat/internal/rag"
	"github.com/ternarybob/arbor"
)

// Asker answers questions about one session's document
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Deps are the shared collaborators every session responder is built with
type Deps struct {
	Embedder embeddings.Embedder
	Model    llm.ChatModel
	Splitter *documents.Splitter
	TopK     int
	Logger   arbor.ILogger
	Metrics  *metrics.Metrics

	// Extract defaults to documents.ExtractPagesFromBytes
	Extract func(data []byte) ([]documents.Page, error)
}

type keywordDoc struct {
	Text string `json:"text"`
}

// Responder holds the indexes built from one uploaded PDF
type Responder struct {
	texts    []string
	vectors  *vectorIndex
	keywords bleve.Index

	embedder embeddings.Embedder
	model    llm.ChatModel
	topK     int
	logger   arbor.ILogger
}

var newKeywordIndex = func() (bleve.Index, error) {
	return bleve.NewMemOnly(bleve.NewIndexMapping())
}

// NewResponder extracts and splits pdf, embeds every chunk it can and
// indexes all chunks for keyword search.
func NewResponder(ctx context.Context, pdf []byte, deps Deps) (*Responder, error) {
	extract := deps.Extract
	if extract == nil {
		extract = documents.ExtractPagesFromBytes
	}
	topK := deps.TopK
	if topK <= 0 {
		topK = 5
	}

	pages, err := extract(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	pieces := deps.Splitter.SplitPages(pages)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document has no extractable text")
	}

	keywords, err := newKeywordIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}

	r := &Responder{
		texts:    make([]string, 0, len(pieces)),
		vectors:  &vectorIndex{},
		keywords: keywords,
		embedder: deps.Embedder,
		model:    deps.Model,
		topK:     topK,
		logger:   deps.Logger,
	}

	batch := keywords.NewBatch()
	for i, piece := range pieces {
		r.texts = append(r.texts, piece.Text)
		if err := batch.Index(strconv.Itoa(i), keywordDoc{Text: piece.Text}); err != nil {
			keywords.Close()
			return nil, fmt.Errorf("failed to index chunk %d: %w", i, err)
		}

		vec, err := deps.Embedder.Embed(ctx, piece.Text)
		if err != nil {
			deps.Logger.Warn().Err(err).Int("chunk", i).Msg("Skipping chunk embedding")
			deps.Metrics.EmbedFailure()
			continue
		}
		r.vectors.Add(i, vec)
	}
	if err := keywords.Batch(batch); err != nil {
		keywords.Close()
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}

	deps.Logger.Info().Int("chunks", len(pieces)).Int("embedded", r.vectors.Len()).Msg("Session index built")
	return r, nil
}

// Ask answers from the top-k chunks, or with the fixed no-information answer
// when nothing matches.
func (r *Responder) Ask(ctx context.Context, question string) (string, error) {
	hits, err := r.search(ctx, question)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return rag.NoInformationAnswer, nil
	}

	texts := make([]string, 0, len(hits))
	for _, i := range hits {
		texts = append(texts, r.texts[i])
	}

	answer, err := r.model.Complete(ctx, rag.BuildPrompt(rag.BuildContext(texts), question))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

func (r *Responder) search(ctx context.Context, question string) ([]int, error) {
	if r.vectors.Len() > 0 {
		q, err := r.embedder.Embed(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("failed to generate query embedding: %w", err)
		}
		return r.vectors.Search(q, r.topK), nil
	}

	// no chunk could be embedded
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(question), r.topK, 0, false)
	res, err := r.keywords.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search keyword index: %w", err)
	}

	hits := make([]int, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, err := strconv.Atoi(h.ID)
		if err != nil || i < 0 || i >= len(r.texts) {
			continue
		}
		hits = append(hits, i)
	}
	return hits, nil
}
