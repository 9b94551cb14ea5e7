// Package client wraps the registry's HTTP API (spec.md §6.1) for the CLI,
// one method per operation, grounded on
// stigmer-stigmer/client-apps/cli/internal/cli/backend/client.go's shape
// (endpoint + token fields, pkg/errors-wrapped failures, one method per
// remote operation) — adapted from a gRPC client to net/http since the
// registry's wire protocol is HTTP/REST, not gRPC.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// defaultTimeout is spec.md §5's "default 15 seconds per request for
// non-upload calls"; publish uses its own longer timeout since it may
// stream file bodies.
const defaultTimeout = 15 * time.Second

// Client talks to one registry over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s %s", method, path)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return resp, decodeAPIError(resp)
	}
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, errors.Wrap(err, "decode response")
		}
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error == "" {
		body.Error = resp.Status
	}
	return fmt.Errorf("registry error (%d): %s", resp.StatusCode, body.Error)
}

// SearchResult mirrors httpapi.SearchResultItem.
type SearchResult struct {
	Score       float64   `json:"score"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Summary     string    `json:"summary"`
	Version     string    `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Client) Search(ctx context.Context, q string, limit int) ([]SearchResult, error) {
	var body struct {
		Results []SearchResult `json:"results"`
	}
	v := url.Values{"q": {q}}
	if limit > 0 {
		v.Set("limit", fmt.Sprint(limit))
	}
	_, err := c.do(ctx, http.MethodGet, "/api/v1/search?"+v.Encode(), nil, "", &body)
	return body.Results, err
}

// SkillListItem mirrors httpapi.SkillListItem.
type SkillListItem struct {
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Summary     string    `json:"summary"`
	Stars       int64     `json:"stars"`
	Downloads   int64     `json:"downloads"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Client) Explore(ctx context.Context, limit int) ([]SkillListItem, error) {
	var body struct {
		Items []SkillListItem `json:"items"`
	}
	v := url.Values{"sort": {"trending"}}
	if limit > 0 {
		v.Set("limit", fmt.Sprint(limit))
	}
	_, err := c.do(ctx, http.MethodGet, "/api/v1/skills?"+v.Encode(), nil, "", &body)
	return body.Items, err
}

// VersionFile mirrors httpapi.VersionFileView.
type VersionFile struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
	ContentType string `json:"contentType"`
}

// SkillVersion mirrors httpapi.VersionView.
type SkillVersion struct {
	Version     string        `json:"version"`
	Changelog   string        `json:"changelog"`
	Files       []VersionFile `json:"files"`
	Fingerprint string        `json:"fingerprint"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Skill mirrors httpapi.GetSkillResponseBody.
type Skill struct {
	Skill struct {
		Slug        string `json:"slug"`
		DisplayName string `json:"displayName"`
		Summary     string `json:"summary"`
	} `json:"skill"`
	LatestVersion *SkillVersion `json:"latestVersion"`
}

func (c *Client) GetSkill(ctx context.Context, slug string) (*Skill, error) {
	var body Skill
	_, err := c.do(ctx, http.MethodGet, "/api/v1/skills/"+url.PathEscape(slug), nil, "", &body)
	if err != nil {
		return nil, err
	}
	return &body, nil
}

// Resolve mirrors httpapi.ResolveResponseBody.
type Resolve struct {
	Match         bool   `json:"match"`
	LatestVersion string `json:"latestVersion"`
}

func (c *Client) Resolve(ctx context.Context, slug, hash string) (*Resolve, error) {
	var body Resolve
	v := url.Values{"slug": {slug}, "hash": {hash}}
	_, err := c.do(ctx, http.MethodGet, "/api/v1/skill/resolve?"+v.Encode(), nil, "", &body)
	if err != nil {
		return nil, err
	}
	return &body, nil
}

// Download fetches the zip for one version and returns its raw bytes.
func (c *Client) Download(ctx context.Context, slug, version string) ([]byte, error) {
	v := url.Values{"slug": {slug}, "version": {version}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/download?"+v.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build download request")
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read download body")
	}
	return data, nil
}

type Whoami struct {
	User struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Image       string `json:"image"`
	} `json:"user"`
}

func (c *Client) Whoami(ctx context.Context) (*Whoami, error) {
	var body Whoami
	_, err := c.do(ctx, http.MethodGet, "/api/v1/whoami", nil, "", &body)
	if err != nil {
		return nil, err
	}
	return &body, nil
}

// PublishFile is one file uploaded inline as part of a publish request.
type PublishFile struct {
	Path string
	Data []byte
}

// PublishRequest is the multipart publish payload (spec.md §6.1).
type PublishRequest struct {
	Slug          string
	DisplayName   string
	Summary       string
	Version       string
	Changelog     string
	Tags          []string
	ForkOfSlug    string
	ForkOfVersion string
	Files         []PublishFile
}

type PublishResult struct {
	Slug          string `json:"slug"`
	Version       string `json:"version"`
	AlreadyExists bool   `json:"alreadyExists"`
}

// Publish uploads a skill version as multipart/form-data, reporting each
// file as it is attached via onFile (used for CLI progress display).
func (c *Client) Publish(ctx context.Context, req PublishRequest, onFile func(path string)) (*PublishResult, error) {
	payload, err := json.Marshal(struct {
		Slug          string   `json:"slug"`
		DisplayName   string   `json:"displayName,omitempty"`
		Summary       string   `json:"summary,omitempty"`
		Version       string   `json:"version,omitempty"`
		Changelog     string   `json:"changelog,omitempty"`
		Tags          []string `json:"tags,omitempty"`
		ForkOfSlug    string   `json:"forkOfSlug,omitempty"`
		ForkOfVersion string   `json:"forkOfVersion,omitempty"`
	}{req.Slug, req.DisplayName, req.Summary, req.Version, req.Changelog, req.Tags, req.ForkOfSlug, req.ForkOfVersion})
	if err != nil {
		return nil, errors.Wrap(err, "marshal publish payload")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("payload", string(payload)); err != nil {
		return nil, errors.Wrap(err, "write payload field")
	}
	for _, f := range req.Files {
		part, err := w.CreateFormFile("files", f.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "create form file %s", f.Path)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, errors.Wrapf(err, "write file %s", f.Path)
		}
		if onFile != nil {
			onFile(f.Path)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	publishCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var result PublishResult
	httpReq, err := http.NewRequestWithContext(publishCtx, http.MethodPost, c.baseURL+"/api/v1/skills", &buf)
	if err != nil {
		return nil, errors.Wrap(err, "build publish request")
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(httpReq)

	// c.http's Timeout would still cap the upload at defaultTimeout, so the
	// request goes through a copy whose only deadline is publishCtx.
	hc := *c.http
	hc.Timeout = 0
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "publish request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode publish response")
	}
	return &result, nil
}

func (c *Client) Delete(ctx context.Context, slug string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/skills/"+url.PathEscape(slug), nil, "", nil)
	return err
}

func (c *Client) Undelete(ctx context.Context, slug string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/skills/"+url.PathEscape(slug)+"/undelete", nil, "", nil)
	return err
}
