package alertsmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/shopspring/decimal"
)

const (
	serviceName = "marketd"
	severity    = "info"

	maxRetries = 5
)

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

type service struct {
	baseUrl       string
	explorerUrl   string
	tokenDecimals int32
	httpClient    *http.Client
}

// NewService returns an AlertManager client. Amounts are rendered in whole
// settlement tokens using the given number of decimals.
func NewService(alertManagerURL, explorerURL string, tokenDecimals int32) ports.Alerts {
	return &service{
		baseUrl:       alertManagerURL,
		explorerUrl:   strings.TrimRight(explorerURL, "/"),
		tokenDecimals: tokenDecimals,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *service) Publish(ctx context.Context, topic ports.Topic, message any) error {
	labels := map[string]string{
		"alertname": string(topic),
		"service":   serviceName,
		"severity":  severity,
	}

	desc := ""
	annotations := map[string]string{}
	switch topic {
	case ports.AuctionSettled:
		annotations["firing_title"] = "🤝 Auction Settled"
		m, ok := message.(ports.AuctionSettledAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		desc = s.formatAuctionSettledAlert(m)
		labels["auction"] = m.Auction
		labels["asset"] = m.Asset
	case ports.AuctionFinalized:
		annotations["firing_title"] = "🔨 Auction Finalized"
		m, ok := message.(ports.AuctionFinalizedAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		desc = s.formatAuctionFinalizedAlert(m)
		labels["auction"] = m.Auction
	default:
		annotations["firing_title"] = fmt.Sprintf("🔔 %s", topic)
		desc = formatGenericAlert(map[string]any{"event": message})
	}

	annotations["description"] = desc
	alert := Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    time.Now(),
	}

	if err := s.sendAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to send alert to AlertManager: %w", err)
	}

	return nil
}

func (s *service) sendAlert(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal([]Alert{alert})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	baseDelay := 100 * time.Millisecond
	backoff := func(attempt int) error {
		delay := baseDelay * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(delay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", s.baseUrl, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if attempt < maxRetries-1 {
				if err := backoff(attempt); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to send alert after %d attempts: %w", maxRetries, err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		// Client errors are not retried.
		if resp.StatusCode >= 500 && attempt < maxRetries-1 {
			if err := backoff(attempt); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf(
			"failed to send alert to AlertManager with status %d after %d attempts",
			resp.StatusCode, attempt+1,
		)
	}

	return fmt.Errorf("failed to send alert after %d attempts", maxRetries)
}

func (s *service) formatAuctionSettledAlert(data ports.AuctionSettledAlert) string {
	lines := make([]string, 0)
	if s.explorerUrl != "" {
		lines = append(lines, fmt.Sprintf("%s/address/%s", s.explorerUrl, data.Auction))
	}
	lines = append(lines, fmt.Sprintf("\n*Auction:* `%s`", data.Auction))
	lines = append(lines, fmt.Sprintf("*Asset:* `%s`", data.Asset))
	lines = append(lines, fmt.Sprintf("*Metadata:* %s", data.MetadataURI))

	lines = append(lines, "\n*Parties:*")
	lines = append(lines, fmt.Sprintf("• Seller: `%s`", data.Seller))
	lines = append(lines, fmt.Sprintf("• Winner: `%s`", data.Winner))

	lines = append(lines, "\n*Proceeds:*")
	lines = append(lines, fmt.Sprintf("• Winning bid: %s", s.formatAmount(data.Amount)))
	lines = append(lines, fmt.Sprintf("• Paid to seller: %s", s.formatAmount(data.SellerAmount)))
	lines = append(lines, fmt.Sprintf(
		"• Commission: %s (%s)", s.formatAmount(data.Commission), data.CommissionPct,
	))
	return strings.Join(lines, "\n")
}

func (s *service) formatAuctionFinalizedAlert(data ports.AuctionFinalizedAlert) string {
	lines := make([]string, 0)
	lines = append(lines, fmt.Sprintf("*Auction:* `%s`", data.Auction))
	if !data.Sold {
		lines = append(lines, "• Ended without bids")
		return strings.Join(lines, "\n")
	}
	lines = append(lines, fmt.Sprintf("• Winner: `%s`", data.Winner))
	lines = append(lines, fmt.Sprintf("• Winning bid: %s", s.formatAmount(data.Amount)))
	return strings.Join(lines, "\n")
}

func formatGenericAlert(data map[string]any) string {
	lines := make([]string, 0)
	for key, value := range data {
		lines = append(lines, fmt.Sprintf("• %s: %v", key, value))
	}
	return strings.Join(lines, "\n")
}

func (s *service) formatAmount(amount uint64) string {
	return decimal.NewFromBigInt(
		new(big.Int).SetUint64(amount), -s.tokenDecimals,
	).String()
}
