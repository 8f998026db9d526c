package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/session"
)

// HTTPClient implements FormsClient over the HTTP API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ FormsClient = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the given base URL (e.g.
// "http://localhost:8080"). When token is non-empty it is sent as a bearer
// token on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			// Owner routes answer a missing session with a redirect to the
			// login page; surface that instead of following it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) GetForm(ctx context.Context, formID string) (*model.FormSchema, error) {
	var schema model.FormSchema
	if err := c.do(ctx, http.MethodGet, "/api/forms/"+url.PathEscape(formID), nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// Submit posts values as a urlencoded body and returns the server's message.
func (c *HTTPClient) Submit(ctx context.Context, formID string, values map[string]string) (string, error) {
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/forms/"+url.PathEscape(formID)+"/submissions", form, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*session.Session, error) {
	var s session.Session
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListOwnerForms(ctx context.Context) ([]*model.FormSummary, error) {
	var resp struct {
		Forms []*model.FormSummary `json:"forms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/forms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Forms, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// do performs a request with an optional urlencoded body and decodes the
// JSON response into result.
func (c *HTTPClient) do(ctx context.Context, method, path string, form url.Values, result any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSeeOther || resp.StatusCode == http.StatusFound {
		return &LoginRequiredError{Location: resp.Header.Get("Location")}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
