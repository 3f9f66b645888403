package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reaction-hand/config"
	"reaction-hand/models"
	"reaction-hand/providers"
)

// Outcome klassifiziert das Ergebnis einer Vorhersage.
type Outcome string

const (
	OutcomeReaction    Outcome = "reaction"
	OutcomeNoReaction  Outcome = "no_reaction"
	OutcomeUnparseable Outcome = "unparseable"
	OutcomeUnavailable Outcome = "unavailable"
)

// Prediction ist das Ergebnis von ReactionService.Predict.
// Result ist nur bei OutcomeReaction gesetzt.
type Prediction struct {
	Outcome Outcome
	Result  *models.ReactionResult
	Model   string
	Raw     string
	Latency time.Duration
	Err     error
}

// Journal speichert Vorhersagen. Ein nil-Journal deaktiviert die Aufzeichnung.
type Journal interface {
	Record(ctx context.Context, entry *models.ReactionLog) error
}

// ReactionService kapselt die Vorhersage von Reaktionen über einen Completion-Provider.
type ReactionService struct {
	Config   *config.Config
	Provider providers.Completer
	Journal  Journal
	Logger   *zap.Logger
}

// NewReactionService erstellt eine neue Instanz des ReactionService.
func NewReactionService(cfg *config.Config, provider providers.Completer, journal Journal, logger *zap.Logger) *ReactionService {
	return &ReactionService{
		Config:   cfg,
		Provider: provider,
		Journal:  journal,
		Logger:   logger,
	}
}

// Predict fragt das Modell nach dem Produkt der Reaktion von formula.
// Fehler des Providers werden nicht weitergereicht, sondern als
// OutcomeUnavailable gemeldet und geloggt. Das Ergebnis ist nicht deterministisch.
func (s *ReactionService) Predict(ctx context.Context, formula string) *Prediction {
	if formula == "" {
		return &Prediction{Outcome: OutcomeNoReaction}
	}

	log := s.Logger.With(zap.String("formula", formula), zap.String("provider", s.Provider.Name()))

	start := time.Now()
	completion, err := s.complete(ctx, formula)
	prediction := &Prediction{Latency: time.Since(start)}

	switch {
	case err != nil:
		prediction.Outcome = OutcomeUnavailable
		prediction.Err = err
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Completion request timed out", zap.Duration("timeout", s.Config.CompletionTimeout), zap.Error(err))
		} else {
			log.Error("Completion request failed", zap.Error(err))
		}
	default:
		prediction.Model = completion.Model
		prediction.Raw = completion.Content
		s.classify(prediction, log)
	}

	s.record(ctx, formula, prediction)
	return prediction
}

// complete ist der abgesicherte Aufruf des Providers; auch Panics werden abgefangen.
func (s *ReactionService) complete(ctx context.Context, formula string) (completion *providers.Completion, err error) {
	defer func() {
		if r := recover(); r != nil {
			completion = nil
			err = fmt.Errorf("completion provider panicked: %v", r)
		}
	}()

	if s.Config.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.CompletionTimeout)
		defer cancel()
	}

	return s.Provider.Complete(ctx, BuildCompletionRequest(s.Config.OpenAIModel, formula))
}

func (s *ReactionService) classify(p *Prediction, log *zap.Logger) {
	result, err := ParseContent(p.Raw, s.Config.StrictParsing)
	switch {
	case err != nil:
		p.Outcome = OutcomeUnparseable
		p.Err = err
		log.Warn("Model answer could not be parsed", zap.String("content", p.Raw), zap.Error(err))
	case result == nil:
		p.Outcome = OutcomeNoReaction
		log.Info("No message content", zap.String("content", p.Raw), zap.String("model", p.Model))
	default:
		p.Outcome = OutcomeReaction
		p.Result = result
		if !result.Complete() {
			log.Warn("Model answer has missing fields", zap.String("content", p.Raw))
		}
	}
}

func (s *ReactionService) record(ctx context.Context, formula string, p *Prediction) {
	if s.Journal == nil {
		return
	}

	entry := &models.ReactionLog{
		Query:     formula,
		Outcome:   string(p.Outcome),
		Model:     p.Model,
		LatencyMS: p.Latency.Milliseconds(),
		Raw:       p.Raw,
	}
	if p.Result != nil {
		entry.Formula = p.Result.Formula
		entry.Name = p.Result.Name
		entry.Description = p.Result.Description
		entry.Emoji = p.Result.Emoji
	}
	if p.Err != nil {
		entry.Error = p.Err.Error()
	}

	if err := s.Journal.Record(ctx, entry); err != nil {
		s.Logger.Warn("Failed to record prediction", zap.String("formula", formula), zap.Error(err))
	}
}
