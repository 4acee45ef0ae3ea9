package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"storefront/internal/config"
	"storefront/internal/logging"
)

// Mailer hands a flat template payload to a delivery backend.
type Mailer interface {
	Send(ctx context.Context, params map[string]string) error
}

// NewMailer picks HTTP delivery when the mail API is configured and
// log-only delivery otherwise.
func NewMailer(cfg config.Mail, logger logrus.FieldLogger) Mailer {
	if cfg.Configured() {
		return NewHTTPMailer(cfg, &http.Client{Timeout: 10 * time.Second})
	}
	return LogMailer{Logger: logging.OrDiscard(logger)}
}

// HTTPMailer posts to an EmailJS-compatible send endpoint.
type HTTPMailer struct {
	cfg    config.Mail
	client *http.Client
}

func NewHTTPMailer(cfg config.Mail, client *http.Client) *HTTPMailer {
	return &HTTPMailer{cfg: cfg, client: client}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (m *HTTPMailer) Send(ctx context.Context, params map[string]string) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      m.cfg.ServiceID,
		TemplateID:     m.cfg.TemplateID,
		UserID:         m.cfg.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return errors.Wrap(err, "encode mail request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build mail request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send mail")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("mail api returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// LogMailer records the payload instead of delivering it.
type LogMailer struct {
	Logger logrus.FieldLogger
}

func (m LogMailer) Send(_ context.Context, params map[string]string) error {
	fields := make(logrus.Fields, len(params))
	for k, v := range params {
		fields[k] = v
	}
	m.Logger.WithFields(fields).Info("mail delivery not configured, logging instead")
	return nil
}
