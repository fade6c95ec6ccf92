// Package updater checks GitHub for a newer specgap release.
//
// The check is read-only: it reports the latest tag and its release page
// and never touches the installed binary.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// githubRepo is the repository path for API calls.
	githubRepo = "HendryAvila/specgap"

	// ReleaseURL is the GitHub API endpoint for the latest release.
	ReleaseURL = "https://api.github.com/repos/" + githubRepo + "/releases/latest"

	// checkTimeout is how long we wait for the GitHub API.
	checkTimeout = 10 * time.Second
)

// ReleaseInfo holds the relevant fields from a GitHub release.
type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Result is the outcome of a check.
type Result struct {
	// CurrentVersion is the running version (e.g. "0.2.0").
	CurrentVersion string `json:"current_version"`
	// LatestVersion is the newest release (e.g. "0.3.0").
	LatestVersion string `json:"latest_version"`
	// UpdateAvailable is true when latest > current.
	UpdateAvailable bool   `json:"update_available"`
	ReleaseURL      string `json:"release_url,omitempty"`
}

// Checker queries a GitHub releases endpoint.
type Checker struct {
	Endpoint string
	Client   *http.Client
}

// NewChecker returns a Checker for the specgap repository.
func NewChecker() *Checker {
	return &Checker{
		Endpoint: ReleaseURL,
		Client:   &http.Client{Timeout: checkTimeout},
	}
}

// Check fetches the latest release and compares it with current.
// A development build ("dev") is never reported as outdated.
func (c *Checker) Check(ctx context.Context, current string) (Result, error) {
	result := Result{CurrentVersion: normalizeVersion(current)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return result, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "specgap/"+current)

	resp, err := c.Client.Do(req)
	if err != nil {
		return result, fmt.Errorf("checking latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return result, fmt.Errorf("parsing release info: %w", err)
	}

	result.LatestVersion = normalizeVersion(release.TagName)
	result.ReleaseURL = release.HTMLURL
	result.UpdateAvailable = isNewer(result.CurrentVersion, result.LatestVersion)
	return result, nil
}

// normalizeVersion strips one leading "v".
func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// isNewer reports whether latest is a higher semantic version than
// current. Versions are compared without their leading "v"; missing
// minor or patch parts count as zero.
func isNewer(current, latest string) bool {
	cv, lv := "v"+current, "v"+latest
	if !semver.IsValid(cv) || !semver.IsValid(lv) {
		return false
	}
	return semver.Compare(lv, cv) > 0
}
