// Package authv1 описывает gRPC-сервис translator.auth.v1.AuthService.
//
// Сообщения сервиса построены на well-known типах protobuf: запросы передают
// одну строку в wrapperspb.StringValue, а ответы приходят в structpb.Struct с полями,
// перечисленными в константах Field*.
package authv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName полное имя сервиса.
const ServiceName = "translator.auth.v1.AuthService"

// Полные имена методов.
const (
	ValidateTokenFullMethod  = "/" + ServiceName + "/ValidateToken"
	GetEntitlementFullMethod = "/" + ServiceName + "/GetEntitlement"
)

// Поля ответов.
const (
	FieldPrincipalID        = "principal_id"
	FieldEmail              = "email"
	FieldDecision           = "decision"
	FieldHasAccess          = "has_access"
	FieldSubscriptionActive = "subscription_active"
	FieldDaysRemaining      = "days_remaining"
	FieldMessage            = "message"
)

// AuthServiceServer серверная часть сервиса.
type AuthServiceServer interface {
	// ValidateToken принимает токен и возвращает principal_id и email.
	ValidateToken(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetEntitlement принимает principal_id и возвращает решение о доступе.
	GetEntitlement(ctx context.Context, principalID *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterAuthServiceServer регистрирует реализацию сервиса.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler(fullMethod string, call func(AuthServiceServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc дескриптор сервиса для grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateToken",
			Handler:    unaryHandler(ValidateTokenFullMethod, AuthServiceServer.ValidateToken),
		},
		{
			MethodName: "GetEntitlement",
			Handler:    unaryHandler(GetEntitlementFullMethod, AuthServiceServer.GetEntitlement),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "translator/auth/v1/auth.proto",
}
