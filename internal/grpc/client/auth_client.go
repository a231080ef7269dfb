// Package client реализует клиент gRPC-сервиса авторизации.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/speech-translator/internal/grpc/authv1"
	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// AuthClient вызывает translator.auth.v1.AuthService.
type AuthClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// NewAuthClient создает клиента. Соединение устанавливается при первом вызове.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	const op = "client.NewAuthClient"

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AuthClient{conn: conn, cc: conn}, nil
}

// Close закрывает соединение.
func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// fromStatus переводит gRPC-статус обратно в таксономию errs.
func fromStatus(op string, err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrAuth, err)
	case codes.NotFound:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrNotFound, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrValidation, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrUpstreamUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// ValidateToken возвращает principal и email владельца токена.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (string, string, error) {
	const op = "client.ValidateToken"

	out := new(structpb.Struct)
	if err := a.cc.Invoke(ctx, authv1.ValidateTokenFullMethod, wrapperspb.String(token), out); err != nil {
		return "", "", fromStatus(op, err)
	}
	fields := out.GetFields()
	return fields[authv1.FieldPrincipalID].GetStringValue(), fields[authv1.FieldEmail].GetStringValue(), nil
}

// GetEntitlement возвращает текущее решение о доступе для аккаунта.
func (a *AuthClient) GetEntitlement(ctx context.Context, principalID string) (models.AccessDecision, error) {
	st, err := a.GetStatus(ctx, principalID)
	if err != nil {
		return "", err
	}
	return st.Decision, nil
}

// GetStatus возвращает решение о доступе вместе с данными для экрана статуса.
func (a *AuthClient) GetStatus(ctx context.Context, principalID string) (models.AccessStatus, error) {
	const op = "client.GetStatus"

	out := new(structpb.Struct)
	if err := a.cc.Invoke(ctx, authv1.GetEntitlementFullMethod, wrapperspb.String(principalID), out); err != nil {
		return models.AccessStatus{}, fromStatus(op, err)
	}
	fields := out.GetFields()
	return models.AccessStatus{
		Decision:           models.AccessDecision(fields[authv1.FieldDecision].GetStringValue()),
		HasAccess:          fields[authv1.FieldHasAccess].GetBoolValue(),
		SubscriptionActive: fields[authv1.FieldSubscriptionActive].GetBoolValue(),
		DaysRemaining:      int(fields[authv1.FieldDaysRemaining].GetNumberValue()),
		Message:            fields[authv1.FieldMessage].GetStringValue(),
	}, nil
}
