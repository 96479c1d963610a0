package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthorized signals that the held token was rejected and must be
// discarded by the UI.
var ErrUnauthorized = errors.New("unauthorized")

// AuthClient talks to the authd HTTP API.
type AuthClient struct {
	baseURL string
	http    *http.Client
}

func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *AuthClient) Register(name, email, password string) error {
	resp, err := c.postJSON("/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	return nil
}

func (c *AuthClient) Login(email, password string) (string, error) {
	resp, err := c.postJSON("/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("server returned empty token")
	}
	return body.Token, nil
}

func (c *AuthClient) Profile(token string) (*Profile, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (c *AuthClient) postJSON(path string, payload map[string]string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
}

func apiError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return errors.New(body.Error)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
