package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bizarre-client/pkg/apperrors"
	"bizarre-client/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const basePath = "/api/v1/"

// transport is the shared HTTP plumbing behind both facade clients. It is
// bound to a single token at construction and never mutated; a session
// change replaces the clients instead of editing them in place.
type transport struct {
	baseURL string
	token   string
	http    *http.Client
}

func newTransport(baseURL, token string) *transport {
	return &transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// hasToken gates every authenticated method. No token means the caller gets
// a silent nil result without any network call, so optimistic rendering can
// proceed while the session resolves.
func (t *transport) hasToken() bool {
	return t.token != ""
}

func (t *transport) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	url := t.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Token "+t.token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := t.http.Do(req)
	if err != nil {
		logger.Log.Warn("request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.String("requestID", requestID),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t *transport) get(ctx context.Context, path string, out interface{}) error {
	return t.do(ctx, http.MethodGet, path, nil, out)
}

func (t *transport) post(ctx context.Context, path string, body, out interface{}) error {
	return t.do(ctx, http.MethodPost, path, body, out)
}

func (t *transport) delete(ctx context.Context, path string) error {
	return t.do(ctx, http.MethodDelete, path, nil, nil)
}

func (t *transport) options(ctx context.Context, path string, out interface{}) error {
	return t.do(ctx, http.MethodOptions, path, nil, out)
}

// decodeError maps an HTTP failure to the client error taxonomy: a 400 with
// a field-keyed body becomes a ValidationError for inline rendering, the
// rest become APIErrors and bubble.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusBadRequest {
		fields := map[string][]string{}
		if err := json.Unmarshal(data, &fields); err == nil && len(fields) > 0 {
			return &apperrors.ValidationError{Status: resp.StatusCode, Fields: fields}
		}
	}

	var body struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(data, &body)
	if body.Detail == "" {
		body.Detail = strings.TrimSpace(string(data))
	}
	return &apperrors.APIError{Status: resp.StatusCode, Detail: body.Detail}
}

func gamePath(gameID int, suffix string) string {
	return fmt.Sprintf("%sgames/%d/%s", basePath, gameID, suffix)
}
