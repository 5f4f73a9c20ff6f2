package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls toast procedures with the JSON codec.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

// NewClient creates a Client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       append([]connect.ClientOption{WithJSON()}, opts...),
	}
}

// Call invokes a unary procedure, e.g. MatchServiceRecommendProcedure.
func Call[Req, Res any](ctx context.Context, c *Client, procedure string, req *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...)
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
