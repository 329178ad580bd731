package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// APIClient is a minimal consumer of the portfolio server. It attaches the
// current access token to every request and hands new token pairs to the
// session manager.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	sessions   *SessionManager
}

func NewAPIClient(baseURL string, sessions *SessionManager) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   sessions,
	}
}

type loginPayload struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type loginEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// Login authenticates and installs the returned token pair as the active
// session.
func (c *APIClient) Login(ctx context.Context, emailOrUsername, password string) error {
	body, err := json.Marshal(loginPayload{
		EmailOrUsername: emailOrUsername,
		Password:        password,
	})
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %s", readErrorMessage(resp.Body, resp.StatusCode))
	}

	var envelope loginEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}

	return c.sessions.Set(Tokens{
		AccessToken:  envelope.Data.AccessToken,
		RefreshToken: envelope.Data.RefreshToken,
	})
}

// RegisterParams carries the signup form. Avatar is required by the server.
type RegisterParams struct {
	Fullname string
	Username string
	Email    string
	Password string
	UserType string

	Avatar         io.Reader
	AvatarFilename string
}

// Register creates an account. It does not log the user in; call Login next.
func (c *APIClient) Register(ctx context.Context, params RegisterParams) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"fullname": params.Fullname,
		"username": params.Username,
		"email":    params.Email,
		"password": params.Password,
		"userType": params.UserType,
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field: %w", err)
		}
	}
	if params.Avatar != nil {
		part, err := writer.CreateFormFile("avatar", params.AvatarFilename)
		if err != nil {
			return fmt.Errorf("attach avatar: %w", err)
		}
		if _, err := io.Copy(part, params.Avatar); err != nil {
			return fmt.Errorf("copy avatar: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/signup", body)
	if err != nil {
		return fmt.Errorf("build signup request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("signup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("signup failed: %s", readErrorMessage(resp.Body, resp.StatusCode))
	}
	return nil
}

// Me fetches the authenticated user's profile.
func (c *APIClient) Me(ctx context.Context) (map[string]any, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile failed: %s", readErrorMessage(resp.Body, resp.StatusCode))
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return envelope.Data, nil
}

// Logout tells the server to revoke the stored refresh token, then drops
// the local session either way.
func (c *APIClient) Logout(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err == nil {
		resp.Body.Close()
	}
	return c.sessions.Clear()
}

// Do issues an authenticated request against the API.
func (c *APIClient) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	token, err := c.sessions.AccessToken()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func readErrorMessage(body io.Reader, status int) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return http.StatusText(status)
}
