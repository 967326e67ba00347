package models

// MonetizationConfig is the input to monetization planning.
type MonetizationConfig struct {
	Title        string   `json:"title"         yaml:"title"`
	Platforms    []string `json:"platforms"     yaml:"platforms"     validate:"dive,oneof=youtube instagram tiktok facebook"`
	AudienceSize int      `json:"audience_size" yaml:"audience_size" validate:"gte=0"`
	ProductPrice float64  `json:"product_price" yaml:"product_price" validate:"gte=0"`
	Artifacts    []string `json:"artifacts"     yaml:"artifacts"`
}

// Distribution is one platform entry of a distribution plan.
type Distribution struct {
	Platform        string   `json:"platform"`
	Format          string   `json:"format"`
	Artifacts       []string `json:"artifacts"`
	EstimatedViews  int      `json:"estimated_views"`
	ExpectedRevenue float64  `json:"expected_revenue"`
}

// MonetizationPlan is the output of monetization planning.
type MonetizationPlan struct {
	DistributionPlan []Distribution `json:"distribution_plan"`
	ExpectedRevenue  float64        `json:"expected_revenue"`
	Suggestions      []string       `json:"suggestions"`
}
