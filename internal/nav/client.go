package nav

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pmcgroup/istock-backend/internal/config"
	"github.com/pmcgroup/istock-backend/internal/logging"
)

// Record is a raw NAV row. The gateway passes NAV payloads through untouched;
// callers pick the fields they need.
type Record = map[string]any

// Client wraps the NAV OData web services behind typed fetch methods.
// All calls use Basic auth and a bounded timeout, except the staging push
// which keeps the legacy near-unbounded one (see config).
type Client struct {
	cfg     config.NAVConfig
	http    *http.Client
	staging *http.Client
}

// NewClient creates a NAV client from configuration.
func NewClient(cfg config.NAVConfig) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		staging: &http.Client{Timeout: time.Duration(cfg.StagingTimeoutMS) * time.Millisecond},
	}
}

// AuthHeader returns the Basic credential sent on every NAV call.
func (c *Client) AuthHeader() string {
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.Username + ":" + c.cfg.Password))
	return "Basic " + basic
}

// Username returns the NAV account used for pulls (recorded in snapshot meta).
func (c *Client) Username() string { return c.cfg.Username }

// UserURL returns the user-list endpoint (recorded in snapshot meta).
func (c *Client) UserURL() string { return c.cfg.UserURL }

// odataEnvelope is the `{value: [...]}` wrapper NAV list endpoints return.
type odataEnvelope struct {
	Value []Record `json:"value"`
	Count *int     `json:"@odata.count"`
}

// decodeList normalizes a NAV list payload: `{value: [...]}`, a bare array,
// or an empty/missing body all become a non-nil slice.
func decodeList(body []byte) ([]Record, *int) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []Record{}, nil
	}
	var env odataEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Value != nil {
		return env.Value, env.Count
	}
	var bare []Record
	if err := json.Unmarshal(body, &bare); err == nil && bare != nil {
		return bare, nil
	}
	return []Record{}, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build NAV request: %w", err)
	}
	req.Header.Set("Authorization", c.AuthHeader())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call NAV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("NAV returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FetchUsers pulls the NAV user list, retrying transient failures with
// exponential backoff (base delay doubling per attempt). This is the only
// gateway call that retries.
func (c *Client) FetchUsers(ctx context.Context) ([]Record, error) {
	if c.cfg.UserURL == "" {
		return nil, fmt.Errorf("NAV_URL is not configured")
	}

	log := logging.GetLogger()
	// A zero or negative retry budget still means one attempt.
	maxRetry := c.cfg.MaxRetry
	if maxRetry < 1 {
		maxRetry = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxRetry; attempt++ {
		body, err := c.get(ctx, c.cfg.UserURL)
		if err == nil {
			users, _ := decodeList(body)
			return users, nil
		}
		lastErr = err
		wait := time.Duration(c.cfg.RetryBaseMS) * time.Millisecond << (attempt - 1)
		log.Warnf("fetch NAV users attempt %d/%d failed: %v, retry in %s", attempt, maxRetry, err, wait)
		if attempt < maxRetry {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// FetchCardList pulls transfer-order headers. Only the receive menu has a NAV
// card list today; other menus resolve to an empty list.
func (c *Client) FetchCardList(ctx context.Context, menuID int, branchFilter string) ([]Record, error) {
	if c.cfg.CardListURL == "" {
		return nil, fmt.Errorf("NAV_URL_TRANSFER_ORDER_WS is not configured")
	}
	if menuID != 0 {
		return []Record{}, nil
	}

	body, err := c.get(ctx, c.cfg.CardListURL+"?$filter="+url.QueryEscape(branchFilter))
	if err != nil {
		return nil, fmt.Errorf("fetch NAV card list: %w", err)
	}
	records, _ := decodeList(body)
	return records, nil
}

// FetchCardDetail pulls transfer-order lines for one docNo, along with the
// server-side count.
func (c *Client) FetchCardDetail(ctx context.Context, menuID int, docNo string) ([]Record, int, error) {
	if c.cfg.CardDetailURL == "" {
		return nil, 0, fmt.Errorf("NAV_URL_TRANSFER_ORDER_DETAIL_WS is not configured")
	}
	if menuID != 0 {
		return []Record{}, 0, nil
	}

	query := "$count=true&$filter=" + url.QueryEscape(Eq("docNo", docNo))
	body, err := c.get(ctx, c.cfg.CardDetailURL+"?"+query)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch NAV card detail: %w", err)
	}
	records, count := decodeList(body)
	if count != nil {
		return records, *count, nil
	}
	return records, len(records), nil
}

// FetchCardDetailFiltered pulls transfer-order lines with a caller-built
// filter expression (already quoted through the filter helpers).
func (c *Client) FetchCardDetailFiltered(ctx context.Context, filter string) ([]Record, error) {
	if c.cfg.CardDetailURL == "" {
		return nil, fmt.Errorf("NAV_URL_TRANSFER_ORDER_DETAIL_WS is not configured")
	}
	body, err := c.get(ctx, c.cfg.CardDetailURL+"?$filter="+url.QueryEscape(filter))
	if err != nil {
		return nil, fmt.Errorf("fetch NAV card detail: %w", err)
	}
	records, _ := decodeList(body)
	return records, nil
}

// FetchItemVariants pulls the variant list for one item.
func (c *Client) FetchItemVariants(ctx context.Context, itemNo string) ([]Record, error) {
	if c.cfg.ItemVariantURL == "" {
		return nil, fmt.Errorf("NAV_URL_ITEM_VARIANT_WS is not configured")
	}
	body, err := c.get(ctx, c.cfg.ItemVariantURL+"?$filter="+url.QueryEscape(Eq("itemNo", itemNo)))
	if err != nil {
		return nil, fmt.Errorf("fetch NAV item variants: %w", err)
	}
	records, _ := decodeList(body)
	return records, nil
}

// FetchItems pulls item inventory for one item scoped to a branch.
func (c *Client) FetchItems(ctx context.Context, itemNo, branchCode string) ([]Record, error) {
	if c.cfg.ItemURL == "" {
		return nil, fmt.Errorf("NAV_URL_ITEM_WS is not configured")
	}
	filter := And(Eq("itemNo", itemNo), Eq("Location_Filter", branchCode))
	body, err := c.get(ctx, c.cfg.ItemURL+"?$filter="+url.QueryEscape(filter))
	if err != nil {
		return nil, fmt.Errorf("fetch NAV items: %w", err)
	}
	records, _ := decodeList(body)
	return records, nil
}

// PushStagingRecord posts one staging line to NAV. The push is best-effort
// per line: every failure is swallowed and reported as false, never an error.
func (c *Client) PushStagingRecord(ctx context.Context, record any) bool {
	if c.cfg.StagingURL == "" {
		return false
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.StagingURL, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", c.AuthHeader())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.staging.Do(req)
	if err != nil {
		logging.LogError("nav", "PushStagingRecord", "staging post failed", nil, err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.LogError("nav", "PushStagingRecord", "staging post rejected", nil,
			fmt.Errorf("NAV returned status %d", resp.StatusCode))
		return false
	}
	return true
}
