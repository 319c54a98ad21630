package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// pageSize is fixed by the provider; the roster endpoint caps at 100.
	pageSize = 100
	// defaultMemberLimit bounds a full roster fetch when the caller passes no limit.
	defaultMemberLimit = 10000

	// minRequestDelay is the minimum spacing between any two outbound calls.
	minRequestDelay = 100 * time.Millisecond
	// pageDelay is the politeness delay between successive roster pages.
	pageDelay = 500 * time.Millisecond
	// verifyDelay gives the provider time to apply a role write before the
	// verification read.
	verifyDelay = 500 * time.Millisecond
	// rateLimitBackoff is the fixed wait after a 429 response.
	rateLimitBackoff = 60 * time.Second
	// maxAttempts bounds retries for transport failures and rate limiting.
	maxAttempts = 3

	csrfHeader    = "X-CSRF-TOKEN"
	sessionCookie = ".ROBLOSECURITY"
)

// UpdateStatus is the outcome of a successful role write. A write whose
// verification read could not be completed is reported distinctly from a
// verified one; callers must not collapse the two.
type UpdateStatus string

const (
	// UpdateApplied means the write succeeded and the follow-up read
	// confirmed the new role.
	UpdateApplied UpdateStatus = "applied"
	// UpdateUnverified means the write succeeded but the follow-up read
	// could not confirm it.
	UpdateUnverified UpdateStatus = "applied_unverified"
)

// Client defines the interface for Roblox group API operations.
type Client interface {
	// GroupInfo fetches basic information about the configured group.
	GroupInfo(ctx context.Context) (*GroupInfo, error)
	// GroupRoles lists all roles in the group's hierarchy.
	GroupRoles(ctx context.Context) ([]Role, error)
	// GroupMembers fetches the full group roster, paginating until the
	// provider returns no further cursor or limit members were collected.
	// On a mid-pagination failure it returns the members fetched so far
	// together with the error.
	GroupMembers(ctx context.Context, limit int) ([]Member, error)
	// MemberRole reads a user's current role in the group.
	MemberRole(ctx context.Context, userID int64) (*Role, error)
	// UpdateMemberRole changes a user's role and verifies the write by
	// reading the role back.
	UpdateMemberRole(ctx context.Context, userID, roleID int64) (UpdateStatus, error)
	// AddMember adds a user to the group with the given role. Best-effort:
	// no post-write verification.
	AddMember(ctx context.Context, userID, roleID int64) error
	// RemoveMember removes a user from the group. Best-effort.
	RemoveMember(ctx context.Context, userID int64) error
	// ResolveUserID looks up a user ID by username. A missing user is a
	// normal outcome, not an error.
	ResolveUserID(ctx context.Context, username string) (int64, bool, error)
}

type apiClient struct {
	cfg    Config
	logger *zap.Logger
	http   *http.Client

	mu          sync.Mutex
	lastRequest time.Time
	csrfToken   string

	// sleep and now are injectable so tests can run the backoff schedule
	// against a fake clock.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewClient creates a new Roblox API client based on the configuration.
func NewClient(cfg Config, logger *zap.Logger) Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	return &apiClient{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Timeout:   timeoutDuration,
			Transport: newTransport(timeoutDuration),
		},
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// newTransport builds an HTTP transport with strict timeouts. A fresh one is
// installed after every transport-level failure so a wedged connection pool
// cannot poison the retry.
func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
}

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

// throttle blocks until the minimum inter-request delay has elapsed since the
// previous call on this client.
func (c *apiClient) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := minRequestDelay - c.now().Sub(c.lastRequest); wait > 0 {
		c.sleep(wait)
	}
	c.lastRequest = c.now()
}

func (c *apiClient) storeCSRF(token string) {
	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
}

func (c *apiClient) currentCSRF() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.csrfToken
}

func (c *apiClient) setHeaders(req *http.Request, mutating bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.Cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.cfg.Cookie})
	}
	if mutating {
		if token := c.currentCSRF(); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}
}

// resetTransport discards the connection pool. Connection resets and
// truncated chunked responses tend to recur on a pooled connection.
func (c *apiClient) resetTransport() {
	c.http.CloseIdleConnections()
	c.http.Transport = newTransport(c.http.Timeout)
}

// do performs one logical API call with rate limiting, bounded retries, and
// CSRF token refresh. Expected failures come back as *Error values.
func (c *apiClient) do(ctx context.Context, method, rawURL string, query url.Values, payload any) (*apiResponse, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
	}

	mutating := method != http.MethodGet && method != http.MethodHead
	csrfRetried := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.throttle()

		var reqBody io.Reader
		if len(body) > 0 {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return nil, err
		}
		if query != nil {
			req.URL.RawQuery = query.Encode()
		}
		c.setHeaders(req, mutating)

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt < maxAttempts {
				c.logger.Warn("transport error, retrying",
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				c.sleep(time.Duration(2*attempt) * time.Second)
				c.resetTransport()
				continue
			}
			return nil, &Error{Reason: ReasonTransport, Message: err.Error()}
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			if attempt < maxAttempts {
				c.logger.Warn("truncated response, retrying",
					zap.Int("attempt", attempt),
					zap.Error(readErr),
				)
				c.sleep(time.Duration(2*attempt) * time.Second)
				c.resetTransport()
				continue
			}
			return nil, &Error{Reason: ReasonTransport, Message: readErr.Error()}
		}

		// Anti-forgery tokens arrive opportunistically on any response.
		if token := resp.Header.Get(csrfHeader); token != "" {
			c.storeCSRF(token)
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
			return &apiResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt < maxAttempts {
				c.logger.Warn("rate limited, backing off",
					zap.Duration("backoff", rateLimitBackoff),
					zap.Int("attempt", attempt),
				)
				c.sleep(rateLimitBackoff)
				continue
			}
			return nil, &Error{Reason: ReasonRateLimited, Message: "retry budget exhausted"}

		case resp.StatusCode == http.StatusUnauthorized:
			return nil, &Error{Reason: ReasonUnauthenticated, Message: "session cookie rejected"}

		case resp.StatusCode == http.StatusForbidden:
			// A 403 on a write usually means a stale anti-forgery token; the
			// response carries a fresh one. Retry the write exactly once with
			// it, without consuming the transport retry budget.
			if mutating && !csrfRetried {
				if token := resp.Header.Get(csrfHeader); token != "" {
					csrfRetried = true
					attempt--
					continue
				}
			}
			return nil, &Error{Reason: ReasonPermissionDenied, Message: apiMessage(data)}

		case resp.StatusCode == http.StatusNotFound:
			return nil, &Error{Reason: ReasonNotFound, Message: apiMessage(data)}

		case resp.StatusCode == http.StatusBadRequest:
			return nil, &Error{Reason: ReasonBadRequest, Message: apiMessage(data)}

		case resp.StatusCode >= 500:
			if attempt < maxAttempts {
				c.logger.Warn("server error, retrying",
					zap.Int("status", resp.StatusCode),
					zap.Int("attempt", attempt),
				)
				c.sleep(time.Duration(2*attempt) * time.Second)
				continue
			}
			return nil, &Error{Reason: ReasonTransport, Message: fmt.Sprintf("server error %d", resp.StatusCode)}

		default:
			return nil, &Error{
				Reason:  ReasonTransport,
				Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200)),
			}
		}
	}

	return nil, &Error{Reason: ReasonTransport, Message: "retry budget exhausted"}
}

// apiMessage extracts the first error message from a Roblox error body.
func apiMessage(body []byte) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		return truncate(parsed.Errors[0].Message, 200)
	}
	return truncate(string(body), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// primeCSRF obtains an anti-forgery token before the first write. The auth
// logout endpoint returns the token in a header even when the call itself is
// rejected.
func (c *apiClient) primeCSRF(ctx context.Context) {
	if c.cfg.Cookie == "" || c.currentCSRF() != "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL+"/logout", nil)
	if err != nil {
		return
	}
	c.setHeaders(req, false)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("could not obtain anti-forgery token", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if token := resp.Header.Get(csrfHeader); token != "" {
		c.storeCSRF(token)
	}
}

func (c *apiClient) groupURL(parts ...any) string {
	u := fmt.Sprintf("%s/groups/%d", c.cfg.GroupsURL, c.cfg.GroupID)
	for _, p := range parts {
		u += fmt.Sprintf("/%v", p)
	}
	return u
}

// GroupInfo fetches basic information about the configured group.
func (c *apiClient) GroupInfo(ctx context.Context) (*GroupInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, c.groupURL(), nil, nil)
	if err != nil {
		return nil, err
	}

	var info GroupInfo
	if err := json.Unmarshal(resp.body, &info); err != nil {
		return nil, fmt.Errorf("decoding group info: %w", err)
	}
	return &info, nil
}

// GroupRoles lists all roles in the group's hierarchy.
func (c *apiClient) GroupRoles(ctx context.Context) ([]Role, error) {
	resp, err := c.do(ctx, http.MethodGet, c.groupURL("roles"), nil, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Roles []Role `json:"roles"`
	}
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding group roles: %w", err)
	}
	return parsed.Roles, nil
}

// GroupMembers fetches the full group roster page by page in provider cursor
// order. No cursor state survives the call; re-invoking starts a fresh fetch.
func (c *apiClient) GroupMembers(ctx context.Context, limit int) ([]Member, error) {
	if limit <= 0 {
		limit = defaultMemberLimit
	}

	var members []Member
	cursor := ""
	page := 0

	for {
		page++
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("sortOrder", "Asc")
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		resp, err := c.do(ctx, http.MethodGet, c.groupURL("users"), q, nil)
		if err != nil {
			return members, fmt.Errorf("fetching roster page %d: %w", page, err)
		}

		var pg memberPage
		if err := json.Unmarshal(resp.body, &pg); err != nil {
			return members, fmt.Errorf("decoding roster page %d: %w", page, err)
		}
		if len(pg.Data) == 0 {
			break
		}

		for _, entry := range pg.Data {
			members = append(members, entry.toMember())
		}
		c.logger.Debug("fetched roster page",
			zap.Int("page", page),
			zap.Int("page_members", len(pg.Data)),
			zap.Int("total_members", len(members)),
		)

		if pg.NextPageCursor == "" {
			break
		}
		if len(members) >= limit {
			c.logger.Warn("roster fetch stopped at member limit", zap.Int("limit", limit))
			break
		}

		cursor = pg.NextPageCursor
		c.sleep(pageDelay)
	}

	c.logger.Info("fetched group roster",
		zap.Int("members", len(members)),
		zap.Int("pages", page),
	)
	return members, nil
}

// MemberRole reads a user's current role in the group.
func (c *apiClient) MemberRole(ctx context.Context, userID int64) (*Role, error) {
	resp, err := c.do(ctx, http.MethodGet, c.groupURL("users", userID), nil, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Role json.RawMessage `json:"role"`
	}
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding member role: %w", err)
	}

	roleID, roleName := normalizeRole(parsed.Role)
	return &Role{ID: roleID, Name: roleName}, nil
}

// UpdateMemberRole changes a user's role and verifies the write took effect,
// because the provider has been observed returning success codes without
// applying the change.
func (c *apiClient) UpdateMemberRole(ctx context.Context, userID, roleID int64) (UpdateStatus, error) {
	if c.cfg.Cookie == "" {
		return "", &Error{Reason: ReasonUnauthenticated, Message: "no session cookie configured"}
	}
	c.primeCSRF(ctx)

	payload := map[string]int64{"roleId": roleID}
	if _, err := c.do(ctx, http.MethodPatch, c.groupURL("users", userID), nil, payload); err != nil {
		return "", err
	}

	c.sleep(verifyDelay)
	role, err := c.MemberRole(ctx, userID)
	if err != nil || role == nil {
		c.logger.Warn("could not verify role change",
			zap.Int64("user_id", userID),
			zap.Int64("role_id", roleID),
			zap.Error(err),
		)
		return UpdateUnverified, nil
	}
	if role.ID != roleID {
		return "", &Error{
			Reason:  ReasonVerificationMismatch,
			Message: fmt.Sprintf("expected role %d, found %d (%s)", roleID, role.ID, role.Name),
		}
	}
	return UpdateApplied, nil
}

// AddMember adds a user to the group with the given role.
func (c *apiClient) AddMember(ctx context.Context, userID, roleID int64) error {
	if c.cfg.Cookie == "" {
		return &Error{Reason: ReasonUnauthenticated, Message: "no session cookie configured"}
	}
	c.primeCSRF(ctx)

	payload := map[string]int64{"roleId": roleID}
	_, err := c.do(ctx, http.MethodPost, c.groupURL("users", userID), nil, payload)
	return err
}

// RemoveMember removes a user from the group.
func (c *apiClient) RemoveMember(ctx context.Context, userID int64) error {
	if c.cfg.Cookie == "" {
		return &Error{Reason: ReasonUnauthenticated, Message: "no session cookie configured"}
	}
	c.primeCSRF(ctx)

	_, err := c.do(ctx, http.MethodDelete, c.groupURL("users", userID), nil, nil)
	return err
}

// ResolveUserID looks up a user ID by username.
func (c *apiClient) ResolveUserID(ctx context.Context, username string) (int64, bool, error) {
	payload := map[string]any{
		"usernames":          []string{username},
		"excludeBannedUsers": true,
	}

	resp, err := c.do(ctx, http.MethodPost, c.cfg.UsersURL+"/usernames/users", nil, payload)
	if err != nil {
		return 0, false, err
	}

	var parsed struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return 0, false, fmt.Errorf("decoding username lookup: %w", err)
	}
	if len(parsed.Data) == 0 {
		return 0, false, nil
	}
	return parsed.Data[0].ID, true, nil
}
