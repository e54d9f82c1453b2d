package pipeline

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/linkguard/internal/model"
)

// ErrEmptyURL is returned for a request that carries no URL
var ErrEmptyURL = errors.New("empty URL")

// AnalyzeRequest asks for the verdict on one URL.
// ID correlates the response; one is generated when empty.
type AnalyzeRequest struct {
	ID  string
	URL string
}

// AnalyzeResponse carries either a result or an error, never both
type AnalyzeResponse struct {
	ID     string
	Result *model.AnalysisResult
	Err    error
}

// Handle answers a request synchronously
func (p *Pipeline) Handle(req AnalyzeRequest) AnalyzeResponse {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	if strings.TrimSpace(req.URL) == "" {
		return AnalyzeResponse{ID: id, Err: ErrEmptyURL}
	}

	result := p.Analyze(req.URL)
	return AnalyzeResponse{ID: id, Result: &result}
}

// HandleAsync answers a request in the background. The channel yields exactly
// one response and is then closed.
func (p *Pipeline) HandleAsync(req AnalyzeRequest) <-chan AnalyzeResponse {
	out := make(chan AnalyzeResponse, 1)
	go func() {
		defer close(out)
		out <- p.Handle(req)
	}()
	return out
}
