package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Client calls a remote ScamShieldService.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient dials target. Nil creds means plaintext.
func NewClient(target string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (*Client, error) {
	if creds == nil {
		creds = insecure.NewCredentials()
	}
	opts = append(opts,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// ClassifyText scores text on the remote service.
func (c *Client) ClassifyText(ctx context.Context, text, channel string) (*ClassifyTextResponse, error) {
	out := new(ClassifyTextResponse)
	req := &ClassifyTextRequest{Text: &text, Channel: channel}
	if err := c.conn.Invoke(ctx, classifyTextMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetScorerStatus fetches the remote scorer status.
func (c *Client) GetScorerStatus(ctx context.Context) (*GetScorerStatusResponse, error) {
	out := new(GetScorerStatusResponse)
	if err := c.conn.Invoke(ctx, getScorerStatusMethod, &GetScorerStatusRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health runs the standard gRPC health check for ScamShieldService. It is sent with
// the protobuf codec.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx,
		&healthpb.HealthCheckRequest{Service: ServiceName},
		grpc.CallContentSubtype("proto"),
	)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
