package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

const resendURL = "https://api.resend.com/emails"

// EmailService delivers one-time codes through the Resend HTTP API.
type EmailService struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient *http.Client
}

func NewEmailService(apiKey, from string) *EmailService {
	return &EmailService{
		apiKey:     apiKey,
		from:       from,
		endpoint:   resendURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoint points the service at a different Resend-compatible URL.
func (s *EmailService) WithEndpoint(endpoint string) *EmailService {
	s.endpoint = endpoint
	return s
}

func (s *EmailService) SendConfirmation(ctx context.Context, to, code string) error {
	return s.send(ctx, to, "HealthHub - Confirm your email", buildCodeEmail(
		"Confirm your email",
		"Welcome to HealthHub! Use the 6-digit code below to confirm your account:",
		code,
		"If you did not create an account, you can ignore this email.",
	))
}

func (s *EmailService) SendPasswordReset(ctx context.Context, to, code string) error {
	return s.send(ctx, to, "HealthHub - Password reset code", buildCodeEmail(
		"Reset your password",
		"Use the 6-digit code below to reset your password:",
		code,
		"If you did not request a reset, you can ignore this email.",
	))
}

func (s *EmailService) send(ctx context.Context, to, subject, body string) error {
	payload := map[string]any{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    body,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("resend api error %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func buildCodeEmail(title, intro, code, footer string) string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family:Arial,sans-serif;background:#f4f4f4;padding:20px;">
  <div style="max-width:480px;margin:0 auto;background:#fff;border-radius:8px;padding:32px;">
    <h2 style="color:#333;">` + title + `</h2>
    <p>Hello,</p>
    <p>` + intro + `</p>
    <div style="text-align:center;margin:24px 0;">
      <span style="font-size:36px;font-weight:bold;letter-spacing:8px;color:#10B981;">` + html.EscapeString(code) + `</span>
    </div>
    <p>This code is valid for <strong>15 minutes</strong>.</p>
    <p>` + footer + `</p>
    <hr style="border:none;border-top:1px solid #eee;margin:24px 0;">
    <p style="color:#999;font-size:12px;">The HealthHub Team</p>
  </div>
</body>
</html>`
}
