// Package translation реализует конвейер перевода речи: распознавание,
// проверку языка, перевод и синтез озвучки.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/metrics"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

const (
	detectMaxTokens    = 10
	translateMaxTokens = 500
	// MaxSpeechInput ограничение длины текста для синтеза речи.
	MaxSpeechInput = 4096
)

// Engine модели распознавания, чата и синтеза речи.
type Engine interface {
	Transcribe(ctx context.Context, audio []byte, fileName, language string) (string, error)
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AudioStore сохраняет синтезированное аудио и возвращает ссылку на него.
type AudioStore interface {
	PutAudio(ctx context.Context, key string, data []byte) (string, error)
}

// Service выполняет конвейер перевода.
type Service struct {
	engine  Engine
	audio   AudioStore
	timeout time.Duration
	log     *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(engine Engine, audio AudioStore, timeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		engine:  engine,
		audio:   audio,
		timeout: timeout,
		log:     log,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func detectPrompt(targetName string) string {
	return fmt.Sprintf("You are a language detector. Analyze the following text and determine if it's in %s language. "+
		"Respond with only \"yes\" or \"no\".", targetName)
}

func translatePrompt(sourceName, targetName string) string {
	return fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s. "+
		"Provide only the translation without any additional comments or explanations.", sourceName, targetName)
}

func validateVoice(voice string) (string, error) {
	if voice == "" {
		return DefaultVoice, nil
	}
	if !voiceSupported(voice) {
		return "", errs.Validation(fmt.Sprintf("unsupported voice %q", voice))
	}
	return voice, nil
}

func validateRequest(req models.TranslationRequest) (models.TranslationRequest, error) {
	if len(req.Audio) == 0 {
		return req, errs.Validation("audio is required")
	}
	if _, ok := languageName(req.SourceLanguage); !ok {
		return req, errs.Validation(fmt.Sprintf("unsupported source language %q", req.SourceLanguage))
	}
	if _, ok := languageName(req.TargetLanguage); !ok {
		return req, errs.Validation(fmt.Sprintf("unsupported target language %q", req.TargetLanguage))
	}
	if req.SourceLanguage == req.TargetLanguage {
		return req, errs.Validation("source and target languages must differ")
	}
	voice, err := validateVoice(req.Voice)
	if err != nil {
		return req, err
	}
	req.Voice = voice
	if req.FileName == "" {
		req.FileName = "audio.m4a"
	}
	return req, nil
}

// Translate распознает речь, определяет, не произнесена ли она уже на целевом
// языке (тогда языки меняются местами), переводит текст и озвучивает перевод.
func (s *Service) Translate(ctx context.Context, req models.TranslationRequest) (result *models.TranslationResult, err error) {
	const op = "translation.Translate"
	defer func() {
		metrics.TranslationRequests.WithLabelValues(metrics.Result(err)).Inc()
	}()

	req, err = validateRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log := s.log.With(
		slog.String("op", op),
		slog.String("source_language", req.SourceLanguage),
		slog.String("target_language", req.TargetLanguage),
	)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sourceText, err := s.engine.Transcribe(ctx, req.Audio, req.FileName, req.SourceLanguage)
	if err != nil {
		log.Error("transcription failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sourceText = strings.TrimSpace(sourceText)
	if sourceText == "" {
		return nil, fmt.Errorf("%s: %w", op, errs.Validation("no speech recognized"))
	}

	source, target := req.SourceLanguage, req.TargetLanguage
	targetName, _ := languageName(target)
	answer, err := s.engine.Complete(ctx, detectPrompt(targetName), sourceText, detectMaxTokens)
	if err != nil {
		log.Error("language detection failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	swapped := strings.Contains(strings.ToLower(answer), "yes")
	if swapped {
		source, target = target, source
		log.Debug("speech already in target language, swapping languages")
	}

	sourceName, _ := languageName(source)
	targetName, _ = languageName(target)
	translated, err := s.engine.Complete(ctx, translatePrompt(sourceName, targetName), sourceText, translateMaxTokens)
	if err != nil {
		log.Error("translation failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	translated = strings.TrimSpace(translated)

	audioURL, err := s.speak(ctx, translated, req.Voice)
	if err != nil {
		log.Error("speech synthesis failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("translation complete", slog.Bool("swapped", swapped))
	return &models.TranslationResult{
		SourceText:     sourceText,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
		Swapped:        swapped,
		AudioURL:       audioURL,
	}, nil
}

// Speak повторно озвучивает ранее переведенный текст.
func (s *Service) Speak(ctx context.Context, text, voice string) (*models.SpeechResult, error) {
	const op = "translation.Speak"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", op, errs.Validation("text is required"))
	}
	if len([]rune(text)) > MaxSpeechInput {
		return nil, fmt.Errorf("%s: %w", op, errs.Validation(fmt.Sprintf("text exceeds %d characters", MaxSpeechInput)))
	}
	voice, err := validateVoice(voice)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	audioURL, err := s.speak(ctx, text, voice)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.SpeechResult{AudioURL: audioURL}, nil
}

func (s *Service) speak(ctx context.Context, text, voice string) (string, error) {
	audio, err := s.engine.Synthesize(ctx, text, voice)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("speech/%s.mp3", uuid.NewString())
	return s.audio.PutAudio(ctx, key, audio)
}
