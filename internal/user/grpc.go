package user

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Wire contract of storefront.user.v1.UserService. Messages are protobuf
// well-known types so no generated code is needed:
//
//	Register(Struct{name, email, password, tax_id}) -> Int64Value(user id)
//	AuthenticateUser(Struct{email, password})       -> Struct{ok, user_id(string)}
//	ValidateUser(Int64Value(user id))               -> BoolValue

const (
	serviceName            = "storefront.user.v1.UserService"
	methodRegister         = "/" + serviceName + "/Register"
	methodAuthenticateUser = "/" + serviceName + "/AuthenticateUser"
	methodValidateUser     = "/" + serviceName + "/ValidateUser"
)

type UserServiceServer interface {
	Register(context.Context, *structpb.Struct) (*wrapperspb.Int64Value, error)
	AuthenticateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateUser(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
}

// UnimplementedUserServiceServer can be embedded to stay forward compatible.
type UnimplementedUserServiceServer struct{}

func (UnimplementedUserServiceServer) Register(context.Context, *structpb.Struct) (*wrapperspb.Int64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedUserServiceServer) AuthenticateUser(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AuthenticateUser not implemented")
}
func (UnimplementedUserServiceServer) ValidateUser(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateUser not implemented")
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&userServiceDesc, srv)
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: registerHandler},
		{MethodName: "AuthenticateUser", Handler: authenticateUserHandler},
		{MethodName: "ValidateUser", Handler: validateUserHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/user/v1/user.proto",
}

func registerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRegister}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).Register(ctx, req.(*structpb.Struct))
	})
}

func authenticateUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).AuthenticateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAuthenticateUser}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).AuthenticateUser(ctx, req.(*structpb.Struct))
	})
}

func validateUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).ValidateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodValidateUser}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(UserServiceServer).ValidateUser(ctx, req.(*wrapperspb.Int64Value))
	})
}

type UserServiceClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	AuthenticateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidateUser(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type userServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) UserServiceClient {
	return &userServiceClient{cc: cc}
}

func (c *userServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, methodRegister, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) AuthenticateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodAuthenticateUser, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) ValidateUser(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, methodValidateUser, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterRequest builds the Register payload.
func RegisterRequest(name, email, password, taxID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":     structpb.NewStringValue(name),
		"email":    structpb.NewStringValue(email),
		"password": structpb.NewStringValue(password),
		"tax_id":   structpb.NewStringValue(taxID),
	}}
}

// AuthRequest builds the AuthenticateUser payload.
func AuthRequest(email, password string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"email":    structpb.NewStringValue(email),
		"password": structpb.NewStringValue(password),
	}}
}

// AuthResult reads an AuthenticateUser answer. user_id is a decimal string
// since a Struct number is a float64.
func AuthResult(s *structpb.Struct) (userID int64, ok bool) {
	f := s.GetFields()
	userID, _ = strconv.ParseInt(f["user_id"].GetStringValue(), 10, 64)
	return userID, f["ok"].GetBoolValue()
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
