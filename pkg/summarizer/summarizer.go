package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/openai/openai-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/internal/metrics"
	"github.com/harun/thakir/internal/tracing"
)

const tracerName = "thakir/summarizer"

// Profile binds a provider to a model and priority (lower runs first)
type Profile struct {
	ID       string
	Provider Provider
	Model    string
	Priority int
}

// Options tunes retries, caching and timeouts
type Options struct {
	MaxRetries int
	CacheSize  int
	Timeout    time.Duration
}

// Service generates lesson summaries with retry and provider failover
type Service struct {
	profiles   []Profile
	maxRetries int
	timeout    time.Duration
	cache      *lru.Cache[string, LessonSummary]
	sleep      func(ctx context.Context, d time.Duration) error
	logger     zerolog.Logger
}

// NewService builds a service from the AI section of the config
func NewService(cfg config.AIConfig) (*Service, error) {
	profiles := make([]Profile, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		provider, err := NewProvider(p)
		if err != nil {
			return nil, err
		}

		model := p.Model
		if model == "" {
			model = DefaultModel(p.Provider)
		}

		profiles = append(profiles, Profile{
			ID:       p.ID,
			Provider: provider,
			Model:    model,
			Priority: p.Priority,
		})
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil && cfg.Timeout != "" {
		return nil, fmt.Errorf("invalid ai timeout %q: %w", cfg.Timeout, err)
	}

	return NewServiceWithProfiles(profiles, Options{
		MaxRetries: cfg.MaxRetries,
		CacheSize:  cfg.CacheSize,
		Timeout:    timeout,
	})
}

// NewServiceWithProfiles builds a service over explicit profiles
func NewServiceWithProfiles(profiles []Profile, opts Options) (*Service, error) {
	sorted := make([]Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	s := &Service{
		profiles:   sorted,
		maxRetries: maxRetries,
		timeout:    opts.Timeout,
		sleep:      sleepContext,
		logger:     log.With().Str("component", "summarizer").Logger(),
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, LessonSummary](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create summary cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Available reports whether any provider is configured
func (s *Service) Available() bool {
	return len(s.profiles) > 0
}

// Providers lists provider names in failover order
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.profiles))
	for _, p := range s.profiles {
		names = append(names, p.Provider.Name())
	}
	return names
}

// GenerateSummary returns a structured summary for req. Each provider gets up
// to MaxRetries extra attempts before the next profile is tried.
func (s *Service) GenerateSummary(ctx context.Context, req Request) (*LessonSummary, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !s.Available() {
		return nil, ErrNoProvider
	}

	key := req.cacheKey()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug().Str("topic", req.Topic).Msg("Summary served from cache")
			return &cached, nil
		}
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "summarizer.generate",
		attribute.String("lesson.topic", req.Topic),
		attribute.String("lesson.length", string(req.Length)),
		attribute.Int("lesson.concepts", req.ConceptCount),
	)
	defer span.End()

	prompt := BuildPrompt(req)

	var lastErr error
	for _, profile := range s.profiles {
		summary, err := s.generateWithRetry(ctx, profile, prompt)
		if err == nil {
			span.SetAttributes(attribute.String("summarizer.provider", profile.Provider.Name()))
			if s.cache != nil {
				s.cache.Add(key, *summary)
			}
			return summary, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}

		s.logger.Warn().
			Err(err).
			Str("profile", profile.ID).
			Str("provider", profile.Provider.Name()).
			Msg("Provider failed, trying next profile")
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func (s *Service) generateWithRetry(ctx context.Context, profile Profile, prompt string) (*LessonSummary, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			// 2s, 4s, 8s...
			delay := time.Second * time.Duration(1<<attempt)
			s.logger.Info().
				Str("provider", profile.Provider.Name()).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Retrying after error")

			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		summary, err := s.generateOnce(ctx, profile, prompt)
		if err == nil {
			return summary, nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", s.maxRetries, lastErr)
}

func (s *Service) generateOnce(ctx context.Context, profile Profile, prompt string) (*LessonSummary, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := profile.Provider.Complete(ctx, CompletionRequest{
		Model:        profile.Model,
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		MaxTokens:    defaultMaxTokens,
	})
	if err != nil {
		metrics.RecordSummarizerCall(profile.Provider.Name(), time.Since(start), false)
		return nil, err
	}

	summary, err := ParseSummary(text)
	metrics.RecordSummarizerCall(profile.Provider.Name(), time.Since(start), err == nil)
	if err != nil {
		s.logger.Debug().Err(err).Str("provider", profile.Provider.Name()).Msg("Unusable summary response")
		return nil, err
	}
	return summary, nil
}

// IsRetryableError reports whether a failed attempt is worth repeating.
// Cancellation and client errors such as a bad API key are not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if status := apiStatus(err); status != 0 {
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return false
		}
	}

	return true
}

func apiStatus(err error) int {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
