// Package rules loads the advisory production ruleset consulted before a
// pipeline run.
package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dukex/studioflow/pkg/models"
)

const maxRulesSize = 1 << 20

var ErrEmptyRules = errors.New("ruleset is empty")

// Static always returns the same ruleset.
type Static string

func (s Static) FetchRules(context.Context) (string, error) {
	if s == "" {
		return "", ErrEmptyRules
	}

	return string(s), nil
}

// RulesetGetter is the slice of the command adapter AdapterRules needs.
type RulesetGetter interface {
	GetRuleset(ctx context.Context) models.CommandResponse
}

// AdapterRules asks the command adapter for the ruleset.
type AdapterRules struct {
	getter RulesetGetter
}

func NewAdapterRules(getter RulesetGetter) *AdapterRules {
	return &AdapterRules{getter: getter}
}

func (r *AdapterRules) FetchRules(ctx context.Context) (string, error) {
	resp := r.getter.GetRuleset(ctx)
	if !resp.Success {
		return "", fmt.Errorf("get_ruleset: %s", resp.Error)
	}

	rules, _ := resp.Result["rules"].(string)
	if rules == "" {
		return "", ErrEmptyRules
	}

	return rules, nil
}

// HTTPFetcher downloads the ruleset as plain text.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &HTTPFetcher{url: url, client: client}
}

func (f *HTTPFetcher) FetchRules(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create rules request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch rules: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("rules endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRulesSize))
	if err != nil {
		return "", fmt.Errorf("failed to read rules: %w", err)
	}

	if len(body) == 0 {
		return "", ErrEmptyRules
	}

	return string(body), nil
}
