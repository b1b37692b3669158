// Package backend implementa el cliente HTTP del API de registro de pagos.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"checkpay/internal/domain"
)

const (
	loginPath    = "/api/login"
	paymentsPath = "/api/payments"
	healthPath   = "/api/health"

	maxErrorBody = 64 << 10
)

// ErrMalformedResponse indica un 2xx cuyo cuerpo no cumple el contrato.
var ErrMalformedResponse = errors.New("malformed response")

// Client habla con el backend. Es seguro para uso concurrente.
type Client struct {
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
	userAgent string
}

// NewClient construye un cliente contra baseURL (sin barra final).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" && !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		userAgent: "checkpay-cli/1.0",
	}
}

// BaseURL devuelve la URL efectiva del backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
}

// Login cambia credenciales por un token y el perfil del usuario.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, loginPath, "", loginRequest{
		Username: creds.Username,
		Password: creds.Password,
	}, &resp, "login", "Invalid credentials")
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		Profile: domain.Profile{Username: resp.Username, UserID: resp.UserID},
		Token:   resp.AccessToken,
	}
	if strings.TrimSpace(session.Token) == "" || !session.Profile.Valid() {
		return domain.Session{}, &domain.NetworkError{Op: "login", Err: ErrMalformedResponse}
	}
	return session, nil
}

// CreatePayment envia un pago autenticado con el token como bearer.
func (c *Client) CreatePayment(ctx context.Context, token string, req domain.PaymentRequest) (domain.PaymentReceipt, error) {
	var receipt domain.PaymentReceipt
	if err := c.do(ctx, http.MethodPost, paymentsPath, token, req, &receipt, "submit payment", "Failed to submit payment"); err != nil {
		return domain.PaymentReceipt{}, err
	}
	if receipt.ID == "" {
		return domain.PaymentReceipt{}, &domain.NetworkError{Op: "submit payment", Err: ErrMalformedResponse}
	}
	return receipt, nil
}

// ListPayments devuelve los pagos recientes del usuario, del mas nuevo al mas viejo.
func (c *Client) ListPayments(ctx context.Context, token string, limit int) ([]domain.PaymentReceipt, error) {
	path := paymentsPath
	if limit > 0 {
		path += "?" + url.Values{"limit": []string{strconv.Itoa(limit)}}.Encode()
	}
	var receipts []domain.PaymentReceipt
	if err := c.do(ctx, http.MethodGet, path, token, nil, &receipts, "list payments", "Failed to load payments"); err != nil {
		return nil, err
	}
	if receipts == nil {
		receipts = []domain.PaymentReceipt{}
	}
	return receipts, nil
}

// HealthStatus es la respuesta de GET /api/health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health consulta el estado del backend.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, http.MethodGet, healthPath, "", nil, &status, "health", "Backend unhealthy")
	return status, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any, op, fallbackDetail string) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend response",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.RejectionError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(raw, fallbackDetail),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// parseDetail extrae "detail" del cuerpo de error. Acepta un string o la lista
// de errores de validacion ([{"msg": "..."}]).
func parseDetail(raw []byte, fallback string) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return fallback
		}
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}

// IsUnauthorized indica si err es un rechazo 401 del backend.
func IsUnauthorized(err error) bool {
	var rej *domain.RejectionError
	return errors.As(err, &rej) && rej.StatusCode == http.StatusUnauthorized
}
