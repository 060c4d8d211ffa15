package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"studysync/internal/app/client/config"
	"studysync/internal/domain/sync"
	"studysync/internal/domain/user"
)

// serverAPI операции сервера, нужные движку синхронизации.
// Выделен для подмены в тестах.
type serverAPI interface {
	Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error)
	Pull(ctx context.Context, req sync.PullRequest) (*sync.PullResponse, error)
}

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   baseURL,
		userAgent: "StudySync-Client/1.0",
	}, nil
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	return nil
}

func (h *httpClient) Register(ctx context.Context, login, password string) error {
	req := user.BaseRequest{
		Login:    login,
		Password: password,
	}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/user/register", req)
	if err != nil {
		return err
	}

	var result struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	if err := h.parseResponse(resp, &result); err != nil {
		return err
	}

	if result.Status == "Error" {
		return fmt.Errorf("ошибка сервера: %s", result.Error)
	}

	return nil
}

func (h *httpClient) Login(ctx context.Context, login, password string) (string, error) {
	req := user.BaseRequest{
		Login:    login,
		Password: password,
	}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/user/login", req)
	if err != nil {
		return "", err
	}

	var result struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
		Token  string `json:"token,omitempty"`
	}

	if err := h.parseResponse(resp, &result); err != nil {
		return "", err
	}

	if result.Status == "Error" {
		return "", fmt.Errorf("ошибка сервера: %s", result.Error)
	}

	h.SetToken(result.Token)
	return result.Token, nil
}

// Push отправляет пакет локальных изменений
func (h *httpClient) Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error) {
	resp, err := h.doRequest(ctx, "POST", "/api/v1/sync/push", req)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
		sync.PushResponse
	}

	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}

	if result.Status == "Error" {
		return nil, fmt.Errorf("ошибка сервера: %s", result.Error)
	}

	return &result.PushResponse, nil
}

// Pull запрашивает изменения сервера новее переданных курсоров
func (h *httpClient) Pull(ctx context.Context, req sync.PullRequest) (*sync.PullResponse, error) {
	resp, err := h.doRequest(ctx, "POST", "/api/v1/sync/pull", req)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
		sync.PullResponse
	}

	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}

	if result.Status == "Error" {
		return nil, fmt.Errorf("ошибка сервера: %s", result.Error)
	}

	return &result.PullResponse, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"size", len(body),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("ошибка сервера: %s", errResp.Error)
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
