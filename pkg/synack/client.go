package synack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aringo/synacksync/internal/utils"
	"github.com/aringo/synacksync/pkg/sync"
	log "github.com/sirupsen/logrus"
)

// targetLookAhead bounds the upcoming-targets query, matching the platform's
// own "upcoming" filter horizon.
const targetLookAhead = 5 * 24 * time.Hour

type Client interface {
	Fetch(ctx context.Context, kind sync.EntityKind) ([]sync.Record, error)
}

type ClientImpl struct {
	baseURL    string
	tokenPath  string
	httpClient *http.Client
	clock      utils.Clock
}

func NewClient(baseURL, tokenPath string) *ClientImpl {
	return &ClientImpl{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenPath:  tokenPath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clock:      utils.SystemClock{},
	}
}

// Fetch retrieves the current records of one kind, normalized to domain
// types. Entries without an id are skipped.
func (c *ClientImpl) Fetch(ctx context.Context, kind sync.EntityKind) ([]sync.Record, error) {
	switch kind {
	case sync.KindTask:
		tasks, err := c.FetchTasks(ctx)
		if err != nil {
			return nil, err
		}
		return asRecords(tasks), nil
	case sync.KindTarget:
		targets, err := c.FetchTargets(ctx)
		if err != nil {
			return nil, err
		}
		return asRecords(targets), nil
	case sync.KindPatchVerification:
		verifications, err := c.FetchPatchVerifications(ctx)
		if err != nil {
			return nil, err
		}
		return asRecords(verifications), nil
	default:
		return nil, fmt.Errorf("unknown entity kind: %s", kind)
	}
}

func asRecords[T sync.Record](items []T) []sync.Record {
	records := make([]sync.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item)
	}
	return records
}

type taskResponse struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Description             string `json:"description"`
	ListingCodename         string `json:"listingCodename"`
	MaxCompletionTimeInSecs int    `json:"maxCompletionTimeInSecs"`
	ClaimedOn               string `json:"claimedOn"`
	Payout                  struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"payout"`
}

// FetchTasks retrieves the claimed tasks.
func (c *ClientImpl) FetchTasks(ctx context.Context) ([]Task, error) {
	params := url.Values{}
	params.Set("perPage", "20")
	params.Set("viewed", "true")
	params.Set("page", "1")
	params.Set("status", "CLAIMED")
	params.Set("includeAssignedBySynackUser", "true")

	var items []taskResponse
	if err := c.get(ctx, "/api/tasks/v2/tasks", params, &items); err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			log.Warnf("skipping task with missing id: %+v", item)
			continue
		}
		claimedOn, err := time.Parse(time.RFC3339, item.ClaimedOn)
		if err != nil {
			log.Warnf("skipping task %s with unparseable claimedOn %q: %v", item.ID, item.ClaimedOn, err)
			continue
		}
		claimedOn = claimedOn.Truncate(time.Second)
		timeGiven := time.Duration(item.MaxCompletionTimeInSecs) * time.Second
		currency := item.Payout.Currency
		if currency == "" {
			currency = "USD"
		}
		tasks = append(tasks, Task{
			TaskID:            item.ID,
			Title:             item.Title,
			Description:       item.Description,
			ListingCodename:   item.ListingCodename,
			TimeGiven:         timeGiven,
			ClaimedOn:         claimedOn,
			MaxCompletionTime: claimedOn.Add(timeGiven),
			PayoutAmount:      item.Payout.Amount,
			PayoutCurrency:    currency,
		})
	}
	return tasks, nil
}

type targetResponse struct {
	Slug     string `json:"slug"`
	Codename string `json:"codename"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	AveragePayout            float64 `json:"averagePayout"`
	IsActive                 bool    `json:"isActive"`
	UpcomingStartDate        int64   `json:"upcoming_start_date"`
	VulnerabilityDiscovery   bool    `json:"vulnerability_discovery"`
	AcceptedVulnerabilities  int     `json:"accepted_vulnerabilities"`
	DynamicPaymentPercentage string  `json:"dynamic_payment_percentage"`
}

// FetchTargets retrieves upcoming targets within the look-ahead horizon.
func (c *ClientImpl) FetchTargets(ctx context.Context) ([]Target, error) {
	params := url.Values{}
	params.Set("filter[primary]", "upcoming")
	params.Set("filter[secondary]", "all")
	params.Set("filter[category]", "all")
	params.Set("filter[industry]", "all")
	params.Set("filter[payout_status]", "all")
	params.Set("filter[to]", strconv.FormatInt(c.clock.Now().Add(targetLookAhead).Unix(), 10))
	params.Set("sorting[field]", "upcomingStartDate")
	params.Set("sorting[direction]", "asc")

	var items []targetResponse
	if err := c.get(ctx, "/api/targets", params, &items); err != nil {
		return nil, err
	}

	targets := make([]Target, 0, len(items))
	for _, item := range items {
		if item.Slug == "" {
			log.Warnf("skipping target with missing slug: %+v", item)
			continue
		}
		percentage := item.DynamicPaymentPercentage
		if percentage == "" {
			percentage = "0.0"
		}
		targets = append(targets, Target{
			Slug:                     item.Slug,
			Category:                 item.Category.Name,
			Codename:                 item.Codename,
			AveragePayout:            item.AveragePayout,
			IsActive:                 item.IsActive,
			Start:                    time.Unix(item.UpcomingStartDate, 0).UTC(),
			Discovery:                item.VulnerabilityDiscovery,
			VulnAccepted:             item.AcceptedVulnerabilities,
			DynamicPaymentPercentage: percentage,
		})
	}
	return targets, nil
}

type patchVerificationResponse struct {
	ID            json.Number `json:"id"`
	Message       string      `json:"message"`
	ExpiresAt     int64       `json:"expires_at"`
	Vulnerability struct {
		ID    json.Number `json:"id"`
		Title string      `json:"title"`
	} `json:"vulnerability"`
}

// FetchPatchVerifications retrieves the open patch verifications.
func (c *ClientImpl) FetchPatchVerifications(ctx context.Context) ([]PatchVerification, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("per_page", "5")

	var items []patchVerificationResponse
	if err := c.get(ctx, "/api/patch_verifications", params, &items); err != nil {
		return nil, err
	}

	verifications := make([]PatchVerification, 0, len(items))
	for _, item := range items {
		if item.ID.String() == "" {
			log.Warnf("skipping patch verification with missing id: %+v", item)
			continue
		}
		verifications = append(verifications, PatchVerification{
			PatchID:   item.ID.String(),
			Message:   item.Message,
			Expires:   time.Unix(item.ExpiresAt, 0).UTC(),
			VulnID:    item.Vulnerability.ID.String(),
			VulnTitle: item.Vulnerability.Title,
		})
	}
	return verifications, nil
}

func (c *ClientImpl) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.readToken()
	if err != nil {
		return &sync.UpstreamError{Transient: false, Err: err}
	}

	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &sync.UpstreamError{Transient: false, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &sync.UpstreamError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &sync.UpstreamError{
			StatusCode: resp.StatusCode,
			Transient:  false,
			Err:        fmt.Errorf("platform rejected the authorization token"),
		}
	default:
		return &sync.UpstreamError{
			StatusCode: resp.StatusCode,
			Transient:  true,
			Err:        fmt.Errorf("platform returned non-OK status: %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &sync.UpstreamError{Transient: true, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// readToken loads the bearer token from the configured file. The token is
// re-read on every request so a refreshed file takes effect without a
// restart.
func (c *ClientImpl) readToken() (string, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return "", fmt.Errorf("could not read authorization token from %s: %w", c.tokenPath, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("authorization token file %s is empty", c.tokenPath)
	}
	return token, nil
}
