package politeness

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/nextread/backend/internal/config"
)

// Checker keeps remote catalog downloads polite: it honours robots.txt and
// spaces out requests to the same host
type Checker struct {
	config      config.FetchConfig
	logger      *logrus.Entry
	client      *http.Client
	robotsCache map[string]*RobotsEntry
	limiters    map[string]*rate.Limiter
	mu          sync.Mutex
}

// RobotsEntry caches robots.txt data; robots is nil when the host has none
type RobotsEntry struct {
	robots    *robotstxt.RobotsData
	fetchTime time.Time
}

func NewChecker(cfg config.FetchConfig, logger *logrus.Entry) *Checker {
	return &Checker{
		config:      cfg,
		logger:      logger,
		client:      &http.Client{Timeout: 10 * time.Second},
		robotsCache: make(map[string]*RobotsEntry),
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Allowed checks the URL against the host's robots.txt. A robots.txt that
// cannot be fetched allows the request.
func (c *Checker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	if !c.config.RespectRobots {
		return true, nil
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}

	robotsData, err := c.getRobotsData(ctx, parsedURL)
	if err != nil {
		c.logger.WithError(err).WithField("host", parsedURL.Host).Warn("Failed to get robots.txt, allowing request")
		return true, nil
	}
	if robotsData == nil {
		return true, nil
	}

	group := robotsData.FindGroup(c.config.UserAgent)
	return group.Test(parsedURL.RequestURI()), nil
}

// Wait blocks until a request to the URL's host may proceed
func (c *Checker) Wait(ctx context.Context, rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return c.limiter(parsedURL.Host).Wait(ctx)
}

func (c *Checker) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		limit := rate.Inf
		if c.config.MinDelay > 0 {
			limit = rate.Every(c.config.MinDelay)
		}
		l = rate.NewLimiter(limit, 1)
		c.limiters[host] = l
		c.logger.WithField("host", host).Debug("Created host limiter")
	}
	return l
}

// getRobotsData fetches and caches robots.txt data
func (c *Checker) getRobotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := target.Host

	c.mu.Lock()
	entry, exists := c.robotsCache[host]
	c.mu.Unlock()

	if exists && time.Since(entry.fetchTime) < c.config.RobotsCacheDuration {
		return entry.robots, nil
	}

	scheme := target.Scheme
	if scheme == "" {
		scheme = "https"
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	var robotsData *robotstxt.RobotsData
	if resp.StatusCode == http.StatusOK {
		robotsData, err = robotstxt.FromResponse(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
		}
	}

	// Cache the result (even if nil for 404s)
	c.mu.Lock()
	c.robotsCache[host] = &RobotsEntry{
		robots:    robotsData,
		fetchTime: time.Now(),
	}
	c.mu.Unlock()

	return robotsData, nil
}
