// Package githubsync mirrors lifecycle tasks to GitHub issues via the
// gh CLI. The mirror is strictly best-effort: every entry point is
// written so that a missing gh binary, a failed auth, or a network
// error degrades to "no mirror" without failing the core operation.
package githubsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/lifecycle"
)

// Runner executes an external command. Package-level indirection so
// tests can stub the gh CLI.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Issue is the subset of GitHub issue state the mirror tracks.
type Issue struct {
	Number    int      `json:"number"`
	URL       string   `json:"url"`
	State     string   `json:"state"`
	Title     string   `json:"title"`
	Assignees []string `json:"assignees"`
	Labels    []string `json:"labels"`
	UpdatedAt string   `json:"updated_at"`
}

// Client drives the gh CLI against one repository.
type Client struct {
	repo string
	run  Runner
}

// NewClient creates a client for repo ("owner/name"). repo may be
// empty, in which case gh uses the current directory's remote.
func NewClient(repo string) *Client {
	return &Client{repo: repo, run: execRunner}
}

func (c *Client) args(base ...string) []string {
	if c.repo != "" {
		return append(base, "--repo", c.repo)
	}
	return base
}

// Available reports whether gh is installed and authenticated.
func (c *Client) Available(ctx context.Context) bool {
	_, err := c.run(ctx, "gh", "auth", "status")
	return err == nil
}

// CreateIssue opens an issue and returns its number and URL.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	args := c.args("issue", "create", "--title", title, "--body", body)
	for _, l := range labels {
		args = append(args, "--label", l)
	}
	out, err := c.run(ctx, "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("githubsync: create issue: %w", err)
	}

	// gh prints the issue URL on success.
	url := strings.TrimSpace(string(out))
	number := 0
	if i := strings.LastIndex(url, "/"); i >= 0 {
		number, _ = strconv.Atoi(url[i+1:])
	}
	if number == 0 {
		return nil, fmt.Errorf("githubsync: unexpected create output %q", url)
	}
	return &Issue{Number: number, URL: url, State: "open", Title: title}, nil
}

// ghIssueView matches the gh --json field names.
type ghIssueView struct {
	Number    int    `json:"number"`
	URL       string `json:"url"`
	State     string `json:"state"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updatedAt"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// ViewIssue fetches the tracked state of one issue.
func (c *Client) ViewIssue(ctx context.Context, number string) (*Issue, error) {
	args := c.args("issue", "view", number, "--json", "number,url,state,title,updatedAt,assignees,labels")
	out, err := c.run(ctx, "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("githubsync: view issue %s: %w", number, err)
	}

	var v ghIssueView
	if err := json.Unmarshal(out, &v); err != nil {
		return nil, fmt.Errorf("githubsync: parse issue %s: %w", number, err)
	}

	issue := &Issue{
		Number:    v.Number,
		URL:       v.URL,
		State:     strings.ToLower(v.State),
		Title:     v.Title,
		UpdatedAt: v.UpdatedAt,
	}
	for _, a := range v.Assignees {
		issue.Assignees = append(issue.Assignees, a.Login)
	}
	for _, l := range v.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}
	return issue, nil
}

// CloseIssue closes an issue.
func (c *Client) CloseIssue(ctx context.Context, number string) error {
	if _, err := c.run(ctx, "gh", c.args("issue", "close", number)...); err != nil {
		return fmt.Errorf("githubsync: close issue %s: %w", number, err)
	}
	return nil
}

// AssignIssue adds an assignee to an issue. gh has no flag to clear
// all assignees, so an empty assignee is not supported here.
func (c *Client) AssignIssue(ctx context.Context, number, assignee string) error {
	if _, err := c.run(ctx, "gh", c.args("issue", "edit", number, "--add-assignee", assignee)...); err != nil {
		return fmt.Errorf("githubsync: assign issue %s: %w", number, err)
	}
	return nil
}

// ReopenIssue reopens an issue.
func (c *Client) ReopenIssue(ctx context.Context, number string) error {
	if _, err := c.run(ctx, "gh", c.args("issue", "reopen", number)...); err != nil {
		return fmt.Errorf("githubsync: reopen issue %s: %w", number, err)
	}
	return nil
}

// ─── Fingerprint & status mapping ────────────────────────────────────────────

// Fingerprint hashes the sync-relevant fields of an issue. Two issues
// fingerprint equal exactly when nothing the mirror tracks has changed,
// which is how remote edits and conflicts are detected.
func Fingerprint(issue *Issue) string {
	assignees := append([]string(nil), issue.Assignees...)
	labels := append([]string(nil), issue.Labels...)
	sort.Strings(assignees)
	sort.Strings(labels)

	payload, _ := json.Marshal(map[string]any{
		"updated_at": issue.UpdatedAt,
		"state":      issue.State,
		"assignees":  assignees,
		"labels":     labels,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// IssueStateForTask maps a task status to the issue state it implies.
// Only Complete closes the issue.
func IssueStateForTask(status string) string {
	if status == lifecycle.TaskComplete {
		return "closed"
	}
	return "open"
}

// TaskStatusFromIssue maps an observed issue state onto the current
// task status. A closed issue completes the task; a reopened issue
// pulls a Complete task back to In Progress; otherwise the task keeps
// its status.
func TaskStatusFromIssue(state, current string) string {
	switch {
	case state == "closed":
		return lifecycle.TaskComplete
	case current == lifecycle.TaskComplete:
		return lifecycle.TaskInProgress
	default:
		return current
	}
}
