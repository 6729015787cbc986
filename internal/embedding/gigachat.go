package embedding

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	providerGigaChat = "gigachat"

	// tokenLeeway refreshes the access token shortly before it expires.
	tokenLeeway = 30 * time.Second
	// defaultTokenTTL applies when the OAuth response carries no expiry.
	defaultTokenTTL = 25 * time.Minute
)

type GigaChatConfig struct {
	// APIKey is the Base64-encoded authorization key issued by the developer portal.
	APIKey             string
	Scope              string
	OAuthURL           string
	BaseURL            string
	Model              string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// GigaChatEmbedder calls the GigaChat /embeddings endpoint. It obtains an
// OAuth access token on first use and refreshes it on expiry or a 401.
type GigaChatEmbedder struct {
	cfg        GigaChatConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewGigaChatEmbedder(cfg *GigaChatConfig, logger *zap.Logger) *GigaChatEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "Embeddings"
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		// GigaChat certificates are issued by the Russian Trusted Root CA
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &GigaChatEmbedder{
		cfg:        *cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type gigachatEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type gigachatEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// Embed retries once with a fresh token when /embeddings rejects the cached
// one. An OAuth failure is returned as is.
func (e *GigaChatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	token, err := e.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := e.embed(ctx, token, text)
	var embErr *Error
	if !errors.As(err, &embErr) || embErr.StatusCode != http.StatusUnauthorized {
		return vec, err
	}

	e.logger.Warn("GigaChat token rejected, refreshing")
	e.invalidateToken()
	token, err = e.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return e.embed(ctx, token, text)
}

func (e *GigaChatEmbedder) embed(ctx context.Context, token, text string) ([]float32, error) {
	payload, err := json.Marshal(gigachatEmbedRequest{Model: e.cfg.Model, Input: []string{text}})
	if err != nil {
		return nil, newError(providerGigaChat, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, newError(providerGigaChat, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, newError(providerGigaChat, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, statusError(providerGigaChat, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var result gigachatEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, newError(providerGigaChat, "decode response", err)
	}
	for _, d := range result.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			return d.Embedding, nil
		}
	}
	return nil, newError(providerGigaChat, "response carries no embedding", nil)
}

func (e *GigaChatEmbedder) accessToken(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" && time.Now().Add(tokenLeeway).Before(e.expiresAt) {
		return e.token, nil
	}

	token, expiresAt, err := e.requestToken(ctx)
	if err != nil {
		return "", err
	}
	e.token = token
	e.expiresAt = expiresAt
	return token, nil
}

func (e *GigaChatEmbedder) invalidateToken() {
	e.mu.Lock()
	e.token = ""
	e.mu.Unlock()
}

func (e *GigaChatEmbedder) requestToken(ctx context.Context) (string, time.Time, error) {
	rqUID := uuid.New().String()

	formData := url.Values{}
	formData.Set("scope", e.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.OAuthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", time.Time{}, newError(providerGigaChat, "create OAuth request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+e.cfg.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, newError(providerGigaChat, "OAuth request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		e.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
			zap.String("rq_uid", rqUID),
		)
		return "", time.Time{}, statusError(providerGigaChat, resp.StatusCode, "OAuth: "+strings.TrimSpace(string(bodyBytes)))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", time.Time{}, newError(providerGigaChat, "decode OAuth response", err)
	}
	if oauthResp.AccessToken == "" {
		return "", time.Time{}, newError(providerGigaChat, "empty access token in OAuth response", nil)
	}

	expiresAt := time.Now().Add(defaultTokenTTL)
	if oauthResp.ExpiresAt > 0 {
		expiresAt = time.UnixMilli(oauthResp.ExpiresAt)
	}

	e.logger.Info("Access token obtained", zap.Time("expires_at", expiresAt))
	return oauthResp.AccessToken, expiresAt, nil
}
