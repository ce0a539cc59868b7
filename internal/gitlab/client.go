// Package gitlab is a small client for the GitLab REST API covering what a
// conflict-resolution run needs: token check, project and MR lookup, notes.
package gitlab

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnauthorized marks a rejected token.
var ErrUnauthorized = errors.New("gitlab: unauthorized")

type Client struct {
	http      *http.Client
	baseURL   string // API root, e.g. https://gitlab.example.com/api/v4
	token     string
	projectID string // numeric id or namespace/project path
}

// New builds a client for one project. TLS verification and proxy use are
// controlled by the caller because the tool targets hosts behind
// TLS-intercepting corporate proxies.
func New(apiURL, projectID, token string, sslVerify, bypassProxy bool) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !sslVerify},
	}
	if !bypassProxy {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second, Transport: transport},
		baseURL:   apiURL,
		token:     token,
		projectID: projectID,
	}
}

// User is the authenticated token owner.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Project struct {
	ID                int    `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
}

// MergeRequest is the subset of MR fields the tool reads.
type MergeRequest struct {
	IID          int    `json:"iid"`
	Title        string `json:"title"`
	State        string `json:"state"`
	MergeStatus  string `json:"merge_status"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	WebURL       string `json:"web_url"`
	HasConflicts bool   `json:"has_conflicts"`
	Author       User   `json:"author"`
}

// HasMergeConflicts reports whether GitLab flags the MR as unmergeable.
func (mr *MergeRequest) HasMergeConflicts() bool {
	return mr.HasConflicts || mr.MergeStatus == "cannot_be_merged"
}

// CurrentUser verifies the token by fetching its owner.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Project(ctx context.Context) (*Project, error) {
	var project Project
	path := "/projects/" + url.PathEscape(c.projectID)
	if err := c.get(ctx, path, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) MergeRequest(ctx context.Context, iid int) (*MergeRequest, error) {
	var mr MergeRequest
	path := fmt.Sprintf("/projects/%s/merge_requests/%d", url.PathEscape(c.projectID), iid)
	if err := c.get(ctx, path, &mr); err != nil {
		return nil, err
	}
	return &mr, nil
}

// PostComment adds a note to the MR.
func (c *Client) PostComment(ctx context.Context, iid int, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/notes", url.PathEscape(c.projectID), iid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("PRIVATE-TOKEN", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, req.Method, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(body) > max {
			body = body[:max]
		}
		return fmt.Errorf("gitlab: %s %s: unexpected status %s: %s",
			req.Method, req.URL.Path, resp.Status, string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
