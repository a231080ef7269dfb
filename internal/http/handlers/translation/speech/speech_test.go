package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

type SpeakerMock struct {
	mock.Mock
}

func (m *SpeakerMock) Speak(ctx context.Context, text, voice string) (*models.SpeechResult, error) {
	args := m.Called(ctx, text, voice)
	if res := args.Get(0); res != nil {
		return res.(*models.SpeechResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSpeechHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		body      string
		setupMock func(*SpeakerMock)
		wantCode  int
		wantError string
	}{
		{
			name: "success",
			body: `{"text":"Hola","voice":"echo"}`,
			setupMock: func(m *SpeakerMock) {
				m.On("Speak", mock.Anything, "Hola", "echo").Return(&models.SpeechResult{AudioURL: "https://s/a.mp3"}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{name: "invalid json", body: `nope`, wantCode: http.StatusBadRequest, wantError: "invalid request body"},
		{name: "missing text", body: `{"voice":"echo"}`, wantCode: http.StatusUnprocessableEntity, wantError: "field Text is a required field"},
		{
			name: "unsupported voice",
			body: `{"text":"Hola","voice":"robot"}`,
			setupMock: func(m *SpeakerMock) {
				m.On("Speak", mock.Anything, "Hola", "robot").
					Return(nil, fmt.Errorf("translation.Speak: %w", errs.Validation("unsupported voice"))).Once()
			},
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "unsupported voice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			speaker := new(SpeakerMock)
			if tt.setupMock != nil {
				tt.setupMock(speaker)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/speech", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			New(log, speaker).ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			var got struct {
				Error string              `json:"error"`
				Data  models.SpeechResult `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got.Error)
			} else {
				assert.Equal(t, "https://s/a.mp3", got.Data.AudioURL)
			}
			speaker.AssertExpectations(t)
		})
	}
}
