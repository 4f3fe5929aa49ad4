// Package website returns a carbon estimate for a web page.
//
// The figures are fixed placeholders. No request is made to the page; only
// the URL is validated. Every Estimate is marked Mock.
package website

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for URLs that are empty, unparsable, or not
// http(s) with a host.
var ErrInvalidURL = errors.New("invalid website URL")

// GoodCleanerThan is the cleaner-than percentage above which a page is
// rated Good.
const GoodCleanerThan = 70.0

// Ratings.
const (
	RatingGood             = "Good"
	RatingNeedsImprovement = "Needs Improvement"
)

// Opportunity is a suggested improvement for the page.
type Opportunity struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Estimate is the carbon estimate for one page view.
type Estimate struct {
	URL           string        `json:"url"`
	Emissions     float64       `json:"emissions_grams"`
	Energy        float64       `json:"energy_wh"`
	DataTransfer  float64       `json:"data_transfer_mb"`
	CleanerThan   float64       `json:"cleaner_than_percent"`
	Rating        string        `json:"rating"`
	Opportunities []Opportunity `json:"opportunities"`
	Mock          bool          `json:"mock"`
}

// Figures are the per-view numbers an Estimator reports.
type Figures struct {
	Emissions    float64
	Energy       float64
	DataTransfer float64
	CleanerThan  float64
}

// DefaultFigures are the placeholder numbers.
func DefaultFigures() Figures {
	return Figures{
		Emissions:    0.83,
		Energy:       1.65,
		DataTransfer: 2.4,
		CleanerThan:  76,
	}
}

// Estimator produces website estimates.
type Estimator struct {
	figures Figures
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithFigures replaces the reported numbers.
func WithFigures(f Figures) Option {
	return func(e *Estimator) {
		e.figures = f
	}
}

// New creates an Estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{figures: DefaultFigures()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate validates rawURL and returns the estimate for it.
func (e *Estimator) Estimate(ctx context.Context, rawURL string) (*Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	f := e.figures
	return &Estimate{
		URL:           u,
		Emissions:     f.Emissions,
		Energy:        f.Energy,
		DataTransfer:  f.DataTransfer,
		CleanerThan:   f.CleanerThan,
		Rating:        Rate(f.CleanerThan),
		Opportunities: opportunities(),
		Mock:          true,
	}, nil
}

// Rate maps a cleaner-than percentage to a rating.
func Rate(cleanerThan float64) string {
	if cleanerThan > GoodCleanerThan {
		return RatingGood
	}
	return RatingNeedsImprovement
}

func opportunities() []Opportunity {
	return []Opportunity{
		{Kind: "tip", Message: "Compress images to reduce page size"},
		{Kind: "warning", Message: "Reduce JavaScript bundle size"},
		{Kind: "warning", Message: "Implement lazy loading for below-the-fold content"},
	}
}

// NormalizeURL checks rawURL and returns it in canonical form. A bare host
// such as "example.com" is given an https scheme.
func NormalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if !strings.Contains(host, ".") && host != "localhost" {
		return "", fmt.Errorf("%w: host %q is not a domain", ErrInvalidURL, host)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}
