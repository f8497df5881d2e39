// Package api exposes the language-model sampler, beam search and scorer
// over HTTP.
package api

import (
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/siyutao/adversarial-nli/internal/decode"
	"github.com/siyutao/adversarial-nli/internal/model"
	"github.com/siyutao/adversarial-nli/internal/version"
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

type Server struct {
	model model.StepModel
	vocab *vocab.Vocabulary
	kind  string
	// seed produces the RNG seed for requests that do not pin one.
	seed func() int64
}

func NewServer(m model.StepModel, v *vocab.Vocabulary, kind string) *Server {
	return &Server{
		model: m,
		vocab: v,
		kind:  kind,
		seed:  func() int64 { return time.Now().UnixNano() },
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/sample", s.handleSample)
	e.POST("/v1/beam", s.handleBeam)
	e.POST("/v1/score", s.handleScore)
	e.GET("/v1/model", s.handleModel)
}

func (s *Server) rng(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(s.seed()))
}

func (s *Server) handleSample(c *echo.Context) error {
	req, err := decodeJSON[SampleRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error(), "")
	}
	if req.Policy == "" {
		req.Policy = string(decode.Greedy)
	}
	policy, err := decode.ParsePolicy(req.Policy)
	if err != nil {
		return writeBadRequest(c, err.Error(), "policy")
	}

	gen := decode.NewGenerator(s.model, s.vocab, s.rng(req.Seed))
	tokens, err := gen.Generate(req.SeedText, req.Num, policy)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, SampleResponse{
		ID:     newRequestID(),
		Tokens: tokens,
		Text:   strings.Join(tokens, " "),
	})
}

func (s *Server) handleBeam(c *echo.Context) error {
	req, err := decodeJSON[BeamRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error(), "")
	}

	bs := decode.NewBeamSearch(s.model, s.vocab, s.rng(req.Seed))
	seqs, scores, err := bs.Search(req.SeedText, req.Width, req.MaxSample)
	if err != nil {
		return writeFailure(c, err)
	}
	hyps := make([]BeamHypothesis, len(seqs))
	for i, seq := range seqs {
		hyps[i] = BeamHypothesis{
			Tokens: seq,
			Text:   s.vocab.DecodeWords(seq),
			Score:  scores[i],
		}
	}
	return c.JSON(http.StatusOK, BeamResponse{ID: newRequestID(), Hypotheses: hyps})
}

func (s *Server) handleScore(c *echo.Context) error {
	req, err := decodeJSON[ScoreRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error(), "")
	}

	rows := make([][]int, len(req.Sentences))
	for i, sentence := range req.Sentences {
		ids := []int{vocab.BosID}
		ids = append(ids, s.vocab.EncodeWords(sentence)...)
		rows[i] = append(ids, vocab.EosID)
	}
	scorer := &decode.PerplexityScorer{Model: s.model}
	scores, err := scorer.Score(rows)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, ScoreResponse{ID: newRequestID(), Scores: scores})
}

func (s *Server) handleModel(c *echo.Context) error {
	return c.JSON(http.StatusOK, ModelResponse{
		Kind:      s.kind,
		VocabSize: s.model.VocabSize(),
		Version:   version.Resolve().Version,
	})
}
