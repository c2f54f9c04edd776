// services/code_relay_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"tote-sponsor-system/logger"
	"tote-sponsor-system/models"
	"tote-sponsor-system/utils"
)

// CodeRelayClient hands one-time codes to an outbound messaging relay over
// HTTP. The relay owns actual delivery.
type CodeRelayClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type relayRequest struct {
	Channel models.IdentifierKind `json:"channel"`
	To      string                `json:"to"`
	Code    string                `json:"code"`
}

func NewCodeRelayClient(baseURL, token string) *CodeRelayClient {
	return &CodeRelayClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.HTTPClient,
	}
}

// SendCode posts to /codes on the relay.
func (c *CodeRelayClient) SendCode(ctx context.Context, kind models.IdentifierKind, normalized, code string) error {
	body, err := json.Marshal(relayRequest{Channel: kind, To: normalized, Code: code})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/codes", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("code relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("code relay rejected request", "status", resp.StatusCode, "to", utils.MaskIdentifier(normalized), "body", string(msg))
		return fmt.Errorf("code relay returned %d", resp.StatusCode)
	}
	return nil
}
