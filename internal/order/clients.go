package order

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikeMC777/storefront/internal/user"
)

// Ext groups the remote services the order service calls.
type Ext struct {
	User user.UserServiceClient
	conn *grpc.ClientConn
}

func NewExt(userAddr string) (*Ext, error) {
	// Non-blocking connection; the first RPC dials.
	conn, err := grpc.NewClient(userAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Ext{User: user.NewUserServiceClient(conn), conn: conn}, nil
}

func (e *Ext) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

func (e *Ext) ValidateUser(ctx context.Context, id int64) (bool, error) {
	out, err := e.User.ValidateUser(ctx, wrapperspb.Int64(id))
	if err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Authenticate returns ok=false for unknown emails and wrong passwords alike.
func (e *Ext) Authenticate(ctx context.Context, email, password string) (userID int64, ok bool, err error) {
	out, err := e.User.AuthenticateUser(ctx, user.AuthRequest(email, password))
	if err != nil {
		return 0, false, err
	}
	userID, ok = user.AuthResult(out)
	return userID, ok, nil
}

func (e *Ext) Register(ctx context.Context, name, email, password, taxID string) (int64, error) {
	out, err := e.User.Register(ctx, user.RegisterRequest(name, email, password, taxID))
	if err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}
