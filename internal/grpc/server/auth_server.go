// Package server реализует gRPC-сервер авторизационного сервиса.
//
// AuthServer проверяет токены доступа и отдает решение о доступе по аккаунту
// для фоновых процессов, которым нужна свежая информация о подписке.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/speech-translator/internal/grpc/authv1"
	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/jwt"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/entitlement"
)

// TokenValidator проверяет токены доступа.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// AccountReader читает записи доступа.
type AccountReader interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// AuthServer реализует authv1.AuthServiceServer.
type AuthServer struct {
	tokens   TokenValidator
	accounts AccountReader
	log      *slog.Logger
	now      func() time.Time
}

var _ authv1.AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(tokens TokenValidator, accounts AccountReader, log *slog.Logger) *AuthServer {
	return &AuthServer{
		tokens:   tokens,
		accounts: accounts,
		log:      log,
		now:      time.Now,
	}
}

// toStatus переводит ошибку сервисного слоя в gRPC-статус.
func toStatus(err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrAuth):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "account not found")
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// ValidateToken проверяет токен и возвращает principal_id и email.
func (s *AuthServer) ValidateToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	claims, err := s.tokens.ValidateToken(ctx, req.GetValue())
	if err != nil {
		s.log.Info("ValidateToken rejected", sl.Err(err))
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]any{
		authv1.FieldPrincipalID: claims.Subject,
		authv1.FieldEmail:       claims.Email,
	})
}

// GetEntitlement возвращает решение о доступе на текущий момент.
func (s *AuthServer) GetEntitlement(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	principalID := req.GetValue()
	if principalID == "" {
		return nil, status.Error(codes.InvalidArgument, "principal_id is required")
	}

	account, err := s.accounts.Get(ctx, principalID)
	if err != nil {
		s.log.Error("GetEntitlement failed", slog.String("principal_id", principalID), sl.Err(err))
		return nil, toStatus(err)
	}

	st := entitlement.Status(*account, s.now())
	return structpb.NewStruct(map[string]any{
		authv1.FieldDecision:           string(st.Decision),
		authv1.FieldHasAccess:          st.HasAccess,
		authv1.FieldSubscriptionActive: st.SubscriptionActive,
		authv1.FieldDaysRemaining:      st.DaysRemaining,
		authv1.FieldMessage:            st.Message,
	})
}
