// Package monetization estimates distribution reach and revenue for
// produced artifacts.
package monetization

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

const DefaultAudienceSize = 10000

var ErrInvalidConfig = errors.New("invalid monetization config")

// DefaultPlatforms are planned when a config names none.
var DefaultPlatforms = []string{"youtube", "instagram", "tiktok"}

type platformProfile struct {
	reachRate       float64
	conversionRate  float64
	revenuePerMille float64
	format          string
}

var platforms = map[string]platformProfile{
	"youtube":   {reachRate: 0.30, conversionRate: 0.020, revenuePerMille: 4.0, format: "16:9 long-form video"},
	"instagram": {reachRate: 0.25, conversionRate: 0.015, revenuePerMille: 1.5, format: "4:5 feed post and 9:16 reel"},
	"tiktok":    {reachRate: 0.40, conversionRate: 0.010, revenuePerMille: 1.0, format: "9:16 short video"},
	"facebook":  {reachRate: 0.15, conversionRate: 0.012, revenuePerMille: 2.0, format: "1:1 feed post"},
}

type Planner struct {
	validate *validator.Validate
}

func NewPlanner() *Planner {
	return &Planner{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Plan builds one distribution entry per platform and sums expected revenue.
func (p *Planner) Plan(cfg models.MonetizationConfig) (*models.MonetizationPlan, error) {
	if err := p.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	requested := cfg.Platforms
	if len(requested) == 0 {
		requested = DefaultPlatforms
	}

	audience := cfg.AudienceSize
	if audience == 0 {
		audience = DefaultAudienceSize
	}

	artifacts := cfg.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}

	plan := &models.MonetizationPlan{
		DistributionPlan: []models.Distribution{},
		Suggestions:      []string{},
	}

	var seen []string

	for _, name := range requested {
		if slices.Contains(seen, name) {
			continue
		}

		seen = append(seen, name)
		profile := platforms[name]

		views := int(float64(audience) * profile.reachRate)
		revenue := float64(views)/1000*profile.revenuePerMille + float64(views)*profile.conversionRate*cfg.ProductPrice

		plan.DistributionPlan = append(plan.DistributionPlan, models.Distribution{
			Platform:        name,
			Format:          profile.format,
			Artifacts:       artifacts,
			EstimatedViews:  views,
			ExpectedRevenue: roundCents(revenue),
		})

		plan.ExpectedRevenue += revenue
	}

	plan.ExpectedRevenue = roundCents(plan.ExpectedRevenue)
	plan.Suggestions = suggestions(cfg, len(seen))

	return plan, nil
}

func suggestions(cfg models.MonetizationConfig, platformCount int) []string {
	out := []string{}

	if len(cfg.Artifacts) == 0 {
		out = append(out, "Produce at least one artifact before distributing")
	}

	switch {
	case cfg.ProductPrice == 0:
		out = append(out, "Set a product price to capture conversion revenue")
	case cfg.ProductPrice < 10:
		out = append(out, "Low price points limit conversion revenue; consider bundling")
	}

	if platformCount == 1 {
		out = append(out, "Cross-post to more platforms to widen reach")
	}

	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
