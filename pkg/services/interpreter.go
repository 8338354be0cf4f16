package services

import (
	"context"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/llm"
	"github.com/chvpa/aura-engine/pkg/models"
	"github.com/chvpa/aura-engine/pkg/prompts"
	"github.com/chvpa/aura-engine/pkg/retry"
	"github.com/chvpa/aura-engine/pkg/vocabulary"
)

// interpretTemperature keeps the model deterministic-ish for filter extraction.
const interpretTemperature = 0.2

// fallbackExplanation is returned when the model could not be used and the
// keyword fallback produced the interpretation.
const fallbackExplanation = "Interpretamos tu búsqueda por palabras clave porque el asistente no está disponible en este momento."

// InterpreterService turns a free-text search string into structured filters
// plus a contextual interpretation.
type InterpreterService interface {
	// Interpret parses the query. The only error it returns is
	// apperrors.ErrEmptyQuery: every model failure degrades to the keyword
	// fallback instead of failing the call.
	Interpret(ctx context.Context, query string) (*models.Interpretation, error)
}

// InterpreterConfig holds tuning for the interpreter.
type InterpreterConfig struct {
	// Timeout bounds one model call, including retries.
	Timeout time.Duration
	// MaxInFlight caps concurrent model calls.
	MaxInFlight int
}

type interpreterService struct {
	client  llm.LLMClient
	vocab   *vocabulary.Vocabulary
	gate    *llm.Gate
	breaker *llm.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// NewInterpreterService creates a new query interpreter.
func NewInterpreterService(
	client llm.LLMClient,
	vocab *vocabulary.Vocabulary,
	cfg InterpreterConfig,
	logger *zap.Logger,
) InterpreterService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &interpreterService{
		client:  client,
		vocab:   vocab,
		gate:    llm.NewGate(cfg.MaxInFlight),
		breaker: llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
		timeout: timeout,
		logger:  logger.Named("interpreter"),
	}
}

var _ InterpreterService = (*interpreterService)(nil)

// interpretationPayload is the JSON shape the model is asked to emit.
// Values are validated against the closed vocabulary before use.
type interpretationPayload struct {
	Gender      *string  `json:"gender"`
	Occasion    *string  `json:"occasion"`
	Intensity   *string  `json:"intensity"`
	Climate     *string  `json:"climate"`
	Event       *string  `json:"event"`
	Families    []string `json:"families"`
	Explanation string   `json:"explanation"`
}

func (s *interpreterService) Interpret(ctx context.Context, query string) (*models.Interpretation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrEmptyQuery
	}

	interp, err := s.interpretWithModel(ctx, query)
	if err != nil {
		s.logger.Warn("Model interpretation failed, using keyword fallback",
			zap.String("query", query),
			zap.Error(err))
		return s.keywordFallback(query), nil
	}

	return interp, nil
}

func (s *interpreterService) interpretWithModel(ctx context.Context, query string) (*models.Interpretation, error) {
	if ok, err := s.breaker.Allow(); !ok {
		return nil, err
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := prompts.BuildSearchInterpretationPrompt(query, s.vocab.Slugs())

	var payload interpretationPayload
	err := retry.DoIfRetryable(ctx, nil, func() error {
		resp, err := s.client.GenerateResponse(ctx, prompt, prompts.SearchInterpretationSystemMessage, interpretTemperature)
		if err != nil {
			return err
		}
		parsed, err := llm.ParseJSONResponse[interpretationPayload](resp.Content)
		if err != nil {
			return err
		}
		payload = parsed
		return nil
	})
	if err != nil {
		s.breaker.RecordFailure()
		return nil, err
	}
	s.breaker.RecordSuccess()

	parsedCtx := s.canonicalize(payload)

	explanation := strings.TrimSpace(payload.Explanation)
	if explanation == "" {
		explanation = fallbackExplanation
	}

	return &models.Interpretation{
		Filters:     filtersFromContext(parsedCtx),
		Context:     parsedCtx,
		Explanation: explanation,
	}, nil
}

// canonicalize validates every model-supplied field against its enumeration.
// Out-of-vocabulary values become unconstrained rather than propagating raw.
func (s *interpreterService) canonicalize(payload interpretationPayload) models.ParsedContext {
	parsed := models.ParsedContext{
		Families: s.vocab.CanonicalFamilies(payload.Families),
	}
	if payload.Gender != nil {
		parsed.Gender = models.CanonicalGender(*payload.Gender)
	}
	if payload.Occasion != nil {
		parsed.Occasion = models.CanonicalOccasion(*payload.Occasion)
	}
	if payload.Intensity != nil {
		parsed.Intensity = models.CanonicalIntensity(*payload.Intensity)
	}
	if payload.Climate != nil {
		parsed.Climate = models.CanonicalClimate(*payload.Climate)
	}
	if payload.Event != nil {
		parsed.Event = models.CanonicalEvent(*payload.Event)
	}
	return parsed
}

// keywordFallback is the best-effort interpretation used when the model is
// unavailable: literal token and substring matching against the vocabulary.
// It never fails; an empty context is the worst case.
func (s *interpreterService) keywordFallback(query string) *models.Interpretation {
	parsed := models.ParsedContext{}
	folded := models.NormalizeQuery(query)
	tokens := tokenize(folded)

	var families []string
	seen := make(map[string]bool)
	for _, family := range s.vocab.Families {
		if seen[family.Slug] {
			continue
		}
		for _, keyword := range family.Keywords {
			if tokens[keyword] {
				families = append(families, family.Slug)
				seen[family.Slug] = true
				break
			}
		}
	}
	parsed.Families = families

	for token := range tokens {
		if parsed.Gender == nil {
			if g, ok := s.vocab.GenderKeywords[token]; ok {
				parsed.Gender = &g
			}
		}
		if parsed.Climate == nil {
			if c, ok := s.vocab.ClimateKeywords[token]; ok {
				parsed.Climate = &c
			}
		}
		if parsed.Occasion == nil {
			if o, ok := s.vocab.OccasionKeywords[token]; ok {
				parsed.Occasion = &o
			}
		}
		if parsed.Intensity == nil {
			if i, ok := s.vocab.IntensityKeywords[token]; ok {
				parsed.Intensity = &i
			}
		}
	}

	return &models.Interpretation{
		Filters:     filtersFromContext(parsed),
		Context:     parsed,
		Explanation: fallbackExplanation,
		Fallback:    true,
	}
}

// tokenize splits a normalized query into a token set. Tokens are
// accent-folded to match the unaccented keyword tables ("cítrico" must hit
// "citrico"), and singularized forms are added so plural keywords still match.
func tokenize(normalized string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(normalized) {
		field = models.FoldAccents(strings.Trim(field, ".,;:!?\"'()"))
		if field == "" {
			continue
		}
		tokens[field] = true
		if singular := inflection.Singular(field); singular != field {
			tokens[singular] = true
		}
	}
	return tokens
}

// filtersFromContext projects the parsed context onto catalog filters.
func filtersFromContext(parsed models.ParsedContext) models.ProductFilters {
	return models.ProductFilters{
		Gender:   parsed.Gender,
		Families: parsed.Families,
	}
}
