package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
)

const (
	defaultHttpTimeout        = 30 * time.Second
	defaultHttpConnectTimeout = 5 * time.Second
	defaultHttpTlsTimeout     = 5 * time.Second
)

const (
	addBookmarksMutation = `mutation AddBookmarks($data: AddBookmarkInput!) {
  addBookmarks(data: $data) { _ }
}`
	removeBookmarkMutation = `mutation RemoveBookmark($id: ID!) {
  removeBookmark(id: $id) { _ }
}`
	upvoteMutation = `mutation Upvote($id: ID!) {
  upvote(id: $id) { _ }
}`
	cancelUpvoteMutation = `mutation CancelUpvote($id: ID!) {
  cancelUpvote(id: $id) { _ }
}`
)

func defaultClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}

// GraphQLClient forwards mutations to an upstream GraphQL API
type GraphQLClient struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

// NewGraphQLClient creates a new GraphQLClient
func NewGraphQLClient(endpoint, token string) *GraphQLClient {
	return &GraphQLClient{
		Endpoint: endpoint,
		Token:    token,
		Client:   defaultClient(),
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *GraphQLClient) Bookmark(ctx context.Context, user *models.User, vars Variables) error {
	return c.Do(ctx, user, addBookmarksMutation, map[string]any{
		"data": map[string]any{"postIds": []string{vars.ID}},
	})
}

func (c *GraphQLClient) RemoveBookmark(ctx context.Context, user *models.User, vars Variables) error {
	return c.Do(ctx, user, removeBookmarkMutation, map[string]any{"id": vars.ID})
}

func (c *GraphQLClient) Upvote(ctx context.Context, user *models.User, vars Variables) error {
	return c.Do(ctx, user, upvoteMutation, map[string]any{"id": vars.ID})
}

func (c *GraphQLClient) CancelUpvote(ctx context.Context, user *models.User, vars Variables) error {
	return c.Do(ctx, user, cancelUpvoteMutation, map[string]any{"id": vars.ID})
}

// Do posts one GraphQL operation on behalf of user and fails on transport or GraphQL errors
func (c *GraphQLClient) Do(ctx context.Context, user *models.User, query string, variables map[string]any) error {
	b, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "feedgate/1.0")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if user != nil {
		req.Header.Set("X-User-Id", strconv.FormatUint(uint64(user.ID), 10))
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("graphql http %d: %s", resp.StatusCode, raw)
	}

	var out graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	return nil
}
