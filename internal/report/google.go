// Package report fetches analytics and search performance reports from
// the Google APIs using service account credentials.
package report

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/creators-jp/portal-server/internal/config"
)

const (
	googleTokenURL = "https://oauth2.googleapis.com/token"

	ScopeAnalytics  = "https://www.googleapis.com/auth/analytics.readonly"
	ScopeWebmasters = "https://www.googleapis.com/auth/webmasters.readonly"
)

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// TokenSource exchanges a signed service account assertion for Google
// access tokens and caches them per scope until shortly before expiry.
type TokenSource struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
	tokenURL    string
	client      *http.Client

	mu     sync.Mutex
	tokens map[string]cachedToken
}

func NewTokenSource(serviceAccountKeyJSON string) (*TokenSource, error) {
	var key serviceAccountKey
	if err := json.Unmarshal([]byte(serviceAccountKeyJSON), &key); err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("service account key missing client_email or private_key")
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse service account private key: %w", err)
	}

	return &TokenSource{
		clientEmail: key.ClientEmail,
		privateKey:  privateKey,
		tokenURL:    googleTokenURL,
		client:      &http.Client{Timeout: config.UpstreamTimeout},
		tokens:      make(map[string]cachedToken),
	}, nil
}

// Token returns a valid access token for the scope, minting a new one
// when no cached token remains valid.
func (ts *TokenSource) Token(ctx context.Context, scope string) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if cached, ok := ts.tokens[scope]; ok && time.Now().Before(cached.expiresAt) {
		return cached.accessToken, nil
	}

	assertion, err := ts.signAssertion(scope)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	expiresIn := time.Duration(tokenResp.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	ts.tokens[scope] = cachedToken{
		accessToken: tokenResp.AccessToken,
		expiresAt:   time.Now().Add(expiresIn - time.Minute),
	}

	return tokenResp.AccessToken, nil
}

func (ts *TokenSource) signAssertion(scope string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   ts.clientEmail,
		"scope": scope,
		"aud":   ts.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.privateKey)
}

// postJSON sends an authorized JSON POST and decodes the response into
// out. Non-200 responses become errors carrying the response body.
func postJSON(ctx context.Context, client *http.Client, token, apiURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("google api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
