package resilience

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Category buckets every failure the provider path can produce.
type Category string

const (
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryAuthorization  Category = "AUTHORIZATION"
	CategoryRateLimit      Category = "RATE_LIMIT"
	CategoryValidation     Category = "VALIDATION"
	CategoryNetwork        Category = "NETWORK"
	CategoryProviderError  Category = "PROVIDER_ERROR"
	CategoryDataError      Category = "DATA_ERROR"
	CategoryConfiguration  Category = "CONFIGURATION"
	CategoryUnknown        Category = "UNKNOWN"
)

// Severity ranks how loudly a failure should surface.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Classification is the verdict consumed by the retry policy. It is the
// single source of truth for propagation decisions.
type Classification struct {
	Category   Category
	Severity   Severity
	Retryable  bool
	RetryAfter time.Duration // zero means use exponential backoff
	Timestamp  time.Time
}

// StatusCoder is implemented by provider errors carrying an HTTP-like code.
type StatusCoder interface {
	StatusCode() int
}

// RetryAfterHinter is implemented by provider errors carrying an explicit
// retry-after hint.
type RetryAfterHinter interface {
	RetryAfterSeconds() int
}

// rule maps message substrings to a category. The table is data, not
// scattered conditionals; structured status codes are always preferred.
type rule struct {
	category   Category
	substrings []string
}

var defaultRules = []rule{
	{CategoryConfiguration, []string{"misconfigured", "missing credential", "configuration", "no api key"}},
	{CategoryAuthentication, []string{"unauthorized", "invalid api key", "authentication failed", "token expired"}},
	{CategoryAuthorization, []string{"forbidden", "permission denied", "not allowed"}},
	{CategoryRateLimit, []string{"rate limit", "too many requests", "throttled"}},
	{CategoryNetwork, []string{"timeout", "timed out", "connection refused", "connection reset", "no such host", "broken pipe"}},
	{CategoryProviderError, []string{"internal server error", "bad gateway", "service unavailable", "gateway timeout"}},
	{CategoryValidation, []string{"validation", "invalid request", "malformed", "missing field"}},
	{CategoryDataError, []string{"not found", "already exists", "duplicate", "conflict"}},
}

var retryAfterPattern = regexp.MustCompile(`retry after (\d+) seconds?`)

const (
	defaultRateLimitRetryAfter = 60 * time.Second
	networkRetryAfter          = 30 * time.Second
	providerErrorRetryAfter    = 60 * time.Second
)

// Classifier maps arbitrary failures into the taxonomy above.
type Classifier struct {
	rules []rule
	now   func() time.Time
}

// NewClassifier builds a classifier with the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules, now: time.Now}
}

// Classify determines category, severity and retryability for err.
func (c *Classifier) Classify(err error) Classification {
	category := c.categorize(err)
	cls := Classification{
		Category:  category,
		Timestamp: c.now(),
	}

	switch category {
	case CategoryAuthentication, CategoryAuthorization:
		cls.Severity = SeverityHigh
	case CategoryRateLimit:
		cls.Severity = SeverityMedium
		cls.Retryable = true
		cls.RetryAfter = c.retryAfter(err, defaultRateLimitRetryAfter)
	case CategoryNetwork:
		cls.Severity = SeverityMedium
		cls.Retryable = true
		cls.RetryAfter = networkRetryAfter
	case CategoryProviderError:
		cls.Severity = SeverityHigh
		cls.Retryable = true
		cls.RetryAfter = providerErrorRetryAfter
	case CategoryValidation:
		cls.Severity = SeverityLow
	case CategoryDataError:
		cls.Severity = SeverityMedium
	case CategoryConfiguration:
		cls.Severity = SeverityCritical
	default:
		cls.Severity = SeverityMedium
	}
	return cls
}

func (c *Classifier) categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// Structured codes first.
	var sc StatusCoder
	if errors.As(err, &sc) {
		switch status := sc.StatusCode(); {
		case status == 401:
			return CategoryAuthentication
		case status == 403:
			return CategoryAuthorization
		case status == 429:
			return CategoryRateLimit
		case status == 400 || status == 422:
			return CategoryValidation
		case status == 404 || status == 409 || status == 410:
			return CategoryDataError
		case status >= 500:
			return CategoryProviderError
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}

	// Best-effort substring fallback.
	msg := strings.ToLower(err.Error())
	for _, r := range c.rules {
		for _, s := range r.substrings {
			if strings.Contains(msg, s) {
				return r.category
			}
		}
	}
	return CategoryUnknown
}

// retryAfter parses "retry after N seconds" from the message, preferring a
// structured hint when the error provides one.
func (c *Classifier) retryAfter(err error, fallback time.Duration) time.Duration {
	var hinter RetryAfterHinter
	if errors.As(err, &hinter) && hinter.RetryAfterSeconds() > 0 {
		return time.Duration(hinter.RetryAfterSeconds()) * time.Second
	}
	if m := retryAfterPattern.FindStringSubmatch(strings.ToLower(err.Error())); m != nil {
		if secs, convErr := strconv.Atoi(m[1]); convErr == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
