// Package ai клиент OpenAI: распознавание речи, чат-модель для проверки
// языка и перевода, синтез речи.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/magabrotheeeer/speech-translator/internal/config"
	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
)

// Client обертка над go-openai с моделями из конфига.
type Client struct {
	client *openai.Client
	cfg    config.OpenAI
}

// New создает клиент OpenAI. BaseURL из конфига заменяет адрес API по умолчанию.
func New(cfg config.OpenAI) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Transcribe распознает речь в аудиофайле. language задает подсказку языка (ISO-639-1).
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName, language string) (string, error) {
	const op = "ai.Transcribe"
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		Reader:   bytes.NewReader(audio),
		FilePath: fileName,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, classify(err))
	}
	return resp.Text, nil
}

// Complete отправляет системную и пользовательскую реплики чат-модели
// и возвращает текст первого варианта ответа.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	const op = "ai.Complete"
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: empty completion", op, errs.ErrUpstreamUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// Synthesize озвучивает текст выбранным голосом и возвращает MP3.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	const op = "ai.Synthesize"
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer func() {
		_ = resp.Close()
	}()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.Classify(err))
	}
	return audio, nil
}

// classify помечает ошибки 5xx, 429 и сетевые ошибки как недоступность сервиса.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode >= http.StatusInternalServerError ||
		apiErr.HTTPStatusCode == http.StatusTooManyRequests) {
		return fmt.Errorf("%w: %w", errs.ErrUpstreamUnavailable, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", errs.ErrUpstreamUnavailable, err)
	}
	return errs.Classify(err)
}
