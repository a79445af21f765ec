package user

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Service struct {
	UnimplementedUserServiceServer
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register
func (s *Service) Register(ctx context.Context, in *structpb.Struct) (*wrapperspb.Int64Value, error) {
	name, email, password, taxID := str(in, "name"), strings.TrimSpace(str(in, "email")), str(in, "password"), str(in, "tax_id")
	if name == "" || email == "" || password == "" || taxID == "" {
		return nil, status.Error(codes.InvalidArgument, "name, email, password and tax_id are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, status.Error(codes.InvalidArgument, "email is not valid")
	}
	hash, err := HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, status.Error(codes.InvalidArgument, "password must be at most 72 bytes")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "hash error: %v", err)
	}
	u := &User{Name: name, Email: email, PasswordHash: hash, TaxID: taxID}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, status.Error(codes.AlreadyExists, "user already exists with this email")
		}
		return nil, status.Errorf(codes.Internal, "create error: %v", err)
	}
	return wrapperspb.Int64(u.ID), nil
}

// AuthenticateUser compares against the stored bcrypt hash. An unknown email
// and a wrong password give the same answer.
func (s *Service) AuthenticateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	email, password := strings.TrimSpace(str(in, "email")), str(in, "password")
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return authResponse(0, false), nil
		}
		return nil, status.Errorf(codes.Internal, "auth error: %v", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return authResponse(0, false), nil
	}
	return authResponse(u.ID, true), nil
}

// ValidateUser (exists by ID)
func (s *Service) ValidateUser(ctx context.Context, in *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	if in.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	_, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrapperspb.Bool(false), nil
		}
		return nil, status.Errorf(codes.Internal, "validate error: %v", err)
	}
	return wrapperspb.Bool(true), nil
}

func authResponse(userID int64, ok bool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"ok":      structpb.NewBoolValue(ok),
		"user_id": structpb.NewStringValue(strconv.FormatInt(userID, 10)),
	}}
}
