package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ReleasesURL is the latest-release endpoint for this repository.
const ReleasesURL = "https://api.github.com/repos/matheuskafuri/resourcehub/releases/latest"

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
}

// Checker asks a release endpoint whether a newer build exists.
type Checker struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{URL: ReleasesURL, Client: &http.Client{Timeout: 5 * time.Second}, Logger: logger}
}

// Check returns nil when the current version is the latest or the check
// could not complete. Failures are logged, never returned.
func (c *Checker) Check(ctx context.Context, currentVersion string) *Result {
	latest, err := c.latest(ctx)
	if err != nil {
		c.Logger.Debug("update check failed", zap.Error(err))
		return nil
	}
	current := strings.TrimPrefix(currentVersion, "v")
	if latest == "" || latest == current {
		return nil
	}
	return &Result{LatestVersion: latest}
}

func (c *Checker) latest(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("releases endpoint returned %s", resp.Status)
	}

	var release ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decoding release: %w", err)
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}
