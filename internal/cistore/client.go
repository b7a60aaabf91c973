// Package cistore implements the run lookup and artifact client over the CI
// platform's REST API (GitHub-Actions-style endpoints: workflow runs filtered
// by head SHA or branch, per-run artifact listings with an expired flag, and
// artifact blob upload/download).
package cistore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/reportcard-dev/reportcard/internal/artifact"
)

// Client talks to one repository's actions API.
type Client struct {
	baseURL string
	repo    string
	token   string
	runID   int64
	http    *http.Client
}

// New builds a client for repo ("owner/name"). runID is the current run,
// the destination of uploads. The underlying HTTP client retries transient
// failures; the host owns any policy beyond that.
func New(baseURL, repo, token string, runID int64) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 5
	retryLogger := log.New()
	retryLogger.SetLevel(log.WarnLevel)
	retryClient.Logger = retryLogger

	return &Client{
		baseURL: baseURL,
		repo:    repo,
		token:   token,
		runID:   runID,
		http:    retryClient.StandardClient(),
	}
}

type runsResponse struct {
	WorkflowRuns []struct {
		ID        int64 `json:"id"`
		RunNumber int   `json:"run_number"`
	} `json:"workflow_runs"`
}

type artifactsResponse struct {
	Artifacts []struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Expired bool   `json:"expired"`
	} `json:"artifacts"`
}

type uploadResponse struct {
	ID int64 `json:"id"`
}

// ListRuns lists workflow runs matching the filter, most recent first.
func (c *Client) ListRuns(ctx context.Context, filter artifact.RunFilter) ([]artifact.Run, error) {
	q := url.Values{}
	if filter.Commit != "" {
		q.Set("head_sha", filter.Commit)
	}
	if filter.Branch != "" {
		q.Set("branch", filter.Branch)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.PageSize > 0 {
		q.Set("per_page", strconv.Itoa(filter.PageSize))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}

	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/actions/runs?%s", c.repo, q.Encode()))
	if err != nil {
		return nil, err
	}
	parsed := &runsResponse{}
	if err := json.Unmarshal(body, parsed); err != nil {
		return nil, errors.Wrap(err, "decoding run listing")
	}
	runs := make([]artifact.Run, 0, len(parsed.WorkflowRuns))
	for _, r := range parsed.WorkflowRuns {
		runs = append(runs, artifact.Run{ID: r.ID, Number: r.RunNumber})
	}
	return runs, nil
}

// List returns the artifact entries of one run.
func (c *Client) List(ctx context.Context, runID int64) ([]artifact.Info, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/actions/runs/%d/artifacts?per_page=100", c.repo, runID))
	if err != nil {
		return nil, err
	}
	parsed := &artifactsResponse{}
	if err := json.Unmarshal(body, parsed); err != nil {
		return nil, errors.Wrap(err, "decoding artifact listing")
	}
	infos := make([]artifact.Info, 0, len(parsed.Artifacts))
	for _, a := range parsed.Artifacts {
		infos = append(infos, artifact.Info{
			ID:      strconv.FormatInt(a.ID, 10),
			Name:    a.Name,
			Expired: a.Expired,
		})
	}
	return infos, nil
}

// Download fetches one artifact's payload.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("/repos/%s/actions/artifacts/%s/content", c.repo, id))
}

// Put uploads payload under name for the current run.
func (c *Client) Put(ctx context.Context, name string, payload []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/actions/runs/%d/artifacts/%s", c.baseURL, c.repo, c.runID, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "creating upload request")
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	parsed := &uploadResponse{}
	if err := json.Unmarshal(body, parsed); err != nil {
		return "", errors.Wrap(err, "decoding upload response")
	}
	return strconv.FormatInt(parsed.ID, 10), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	c.setHeaders(req)
	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s", req.URL.Path)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s for %s", resp.Status, req.URL.Path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading response for %s", req.URL.Path)
	}
	return body, nil
}
