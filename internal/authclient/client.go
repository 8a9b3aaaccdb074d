// Package authclient sends requests to the notes backend with the stored access token attached.
//
// When the backend reports that the access token has expired the client refreshes the credential
// pair and replays the request. Concurrent callers hitting the same expiry share one refresh call:
// the first one performs it while the others are parked and sent again in arrival order once the new
// pair is stored, or rejected together when the refresh fails. Replays leave one after the other but
// do not wait for each other's responses.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/metrics"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/notesphere/notes-gateway/internal/utils"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const maxClassifiedBodySize = 64 * 1024

// maxDispatchWait bounds how long a replay that cannot be written holds back the next one.
const maxDispatchWait = time.Second

const (
	originTrigger string = "trigger"
	originQueued  string = "queued"
	originStale   string = "stale"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type settlement struct {
	resp *http.Response
	pair models.CredentialPair
	err  error
}

// pendingRequest is a caller parked while a refresh is in flight
type pendingRequest struct {
	ctx context.Context
	// req is nil for callers that only wait for the refresh to finish
	req  *Request
	done chan settlement
}

type Client struct {
	baseURL        *url.URL
	store          credentials.Store
	httpClient     *http.Client
	requestTimeout time.Duration
	refreshPath    string
	sentinel       string
	refreshTimeout time.Duration
	signOut        SignOutHandler
	metrics        *metrics.GatewayMetrics
	idGenerator    models.IDGenerator

	lock       sync.Mutex
	refreshing bool
	// generation is incremented every time a refresh stores a new pair, issued is that pair's access token
	generation uint64
	issued     string
	pending    *orderedmap.OrderedMap[string, *pendingRequest]
}

func NewClient(options ...ClientOption) (*Client, error) {
	c := &Client{
		refreshPath:    DefaultRefreshPath,
		sentinel:       config.DefaultExpirySentinel,
		refreshTimeout: DefaultRefreshTimeout,
		idGenerator:    models.NewULIDGenerator(),
		pending:        orderedmap.New[string, *pendingRequest](),
	}
	for _, opt := range options {
		err := opt(c)
		if err != nil {
			return &Client{}, err
		}
	}
	if c.baseURL == nil {
		return &Client{}, fmt.Errorf("the base url of the notes backend is required")
	}
	if c.store == nil {
		c.store = credentials.NewMemoryStore()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.requestTimeout}
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop()
	}
	return c, nil
}

// Credentials returns the stored pair.
func (c *Client) Credentials(ctx context.Context) (models.CredentialPair, error) {
	return c.store.Get(ctx)
}

// Do sends the request with the current access token. The response is returned with its body unread
// for anything other than an expired access token, which is handled by refreshing and replaying.
// Transport errors are returned as they are.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	req = req.withTracing(ctx)
	c.lock.Lock()
	sentGeneration := c.generation
	c.lock.Unlock()
	pair, err := c.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read the stored credentials: %w", err)
	}
	resp, err := c.send(ctx, req, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if !c.isExpired(req, resp) {
		return resp, nil
	}
	closeResponse(resp)
	slog.Debug(
		"AUTH CLIENT",
		"message", "the access token has expired",
		"method", req.Method,
		"path", req.Path,
		"requestID", req.Header.Get(requestIDHeader),
	)
	return c.recoverExpired(ctx, req, pair.AccessToken, sentGeneration)
}

func (c *Client) recoverExpired(ctx context.Context, req Request, sentToken string, sentGeneration uint64) (*http.Response, error) {
	req.retried = true
	// the pair may have changed while the request was in flight, a new refresh is not needed then
	current, err := c.store.Get(ctx)
	if err == nil && current.AccessToken != "" && current.AccessToken != sentToken {
		return c.replay(ctx, req, current.AccessToken, originStale)
	}

	c.lock.Lock()
	if c.refreshing {
		key, entry, err := c.enqueueLocked(ctx, &req)
		c.lock.Unlock()
		if err != nil {
			return nil, err
		}
		s := c.wait(ctx, key, entry)
		return s.resp, s.err
	}
	// a refresh finished after the request was sent, unless the request already carried its token
	if c.generation != sentGeneration && c.issued != "" && c.issued != sentToken {
		issued := c.issued
		c.lock.Unlock()
		return c.replay(ctx, req, issued, originStale)
	}
	c.refreshing = true
	c.lock.Unlock()

	pair, queued, err := c.lead(ctx)
	if err != nil {
		return nil, err
	}
	triggered := make(chan settlement, 1)
	c.dispatch(ctx, req, pair.AccessToken, originTrigger, triggered)
	go c.replayQueued(queued, pair)
	s := <-triggered
	return s.resp, s.err
}

// Refresh obtains a new pair. If a refresh is already in flight it waits for that one instead.
func (c *Client) Refresh(ctx context.Context) (models.CredentialPair, error) {
	c.lock.Lock()
	if c.refreshing {
		key, entry, err := c.enqueueLocked(ctx, nil)
		c.lock.Unlock()
		if err != nil {
			return models.CredentialPair{}, err
		}
		s := c.wait(ctx, key, entry)
		return s.pair, s.err
	}
	c.refreshing = true
	c.lock.Unlock()

	pair, queued, err := c.lead(ctx)
	if err != nil {
		return models.CredentialPair{}, err
	}
	go c.replayQueued(queued, pair)
	return pair, nil
}

// lead performs the refresh call for the whole flight and ends the flight. On success the parked
// callers are returned in arrival order, on failure they are rejected and the session is ended.
func (c *Client) lead(ctx context.Context) (models.CredentialPair, []*pendingRequest, error) {
	slog.Info("AUTH CLIENT", "message", "refreshing the credentials")
	pair, err := c.callRefresh(ctx)
	if err == nil {
		queued := c.endFlight(true, pair.AccessToken)
		c.metrics.RefreshSucceeded()
		slog.Info("AUTH CLIENT", "message", "the credentials were refreshed", "pending", len(queued))
		return pair, queued, nil
	}

	c.metrics.RefreshFailed()
	slog.Error("AUTH CLIENT", "message", "refreshing the credentials failed, ending the session", "error", err)
	clearErr := c.store.Clear(context.WithoutCancel(ctx))
	if clearErr != nil {
		slog.Error("AUTH CLIENT", "message", "could not clear the stored credentials", "error", clearErr)
	}
	queued := c.endFlight(false, "")
	for _, p := range queued {
		p.done <- settlement{err: err}
	}
	c.metrics.SignOuts.Inc()
	if c.signOut != nil {
		c.signOut(context.WithoutCancel(ctx), err)
	}
	return models.CredentialPair{}, nil, err
}

// endFlight returns to the idle state and hands over the parked callers.
func (c *Client) endFlight(success bool, issued string) []*pendingRequest {
	c.lock.Lock()
	defer c.lock.Unlock()
	queued := make([]*pendingRequest, 0, c.pending.Len())
	for p := c.pending.Oldest(); p != nil; p = p.Next() {
		queued = append(queued, p.Value)
	}
	c.pending = orderedmap.New[string, *pendingRequest]()
	c.refreshing = false
	if success {
		c.generation++
		c.issued = issued
	}
	c.metrics.QueueDepth.Set(0)
	return queued
}

func (c *Client) enqueueLocked(ctx context.Context, req *Request) (string, *pendingRequest, error) {
	key, err := c.idGenerator.ID()
	if err != nil {
		return "", nil, err
	}
	entry := &pendingRequest{ctx: ctx, req: req, done: make(chan settlement, 1)}
	c.pending.Set(key, entry)
	c.metrics.QueueDepth.Set(float64(c.pending.Len()))
	return key, entry, nil
}

// wait blocks until the flight settles the entry or the caller gives up. A caller that gives up
// after the flight took over its entry leaves the settlement to be drained in the background.
func (c *Client) wait(ctx context.Context, key string, entry *pendingRequest) settlement {
	select {
	case s := <-entry.done:
		return s
	case <-ctx.Done():
	}
	c.lock.Lock()
	_, queued := c.pending.Get(key)
	if queued {
		c.pending.Delete(key)
		c.metrics.QueueDepth.Set(float64(c.pending.Len()))
	}
	c.lock.Unlock()
	if !queued {
		go func() {
			s := <-entry.done
			closeResponse(s.resp)
		}()
	}
	return settlement{err: ctx.Err()}
}

func (c *Client) replayQueued(queued []*pendingRequest, pair models.CredentialPair) {
	for _, p := range queued {
		if p.req == nil {
			p.done <- settlement{pair: pair}
			continue
		}
		if err := p.ctx.Err(); err != nil {
			p.done <- settlement{err: err}
			continue
		}
		c.dispatch(p.ctx, *p.req, pair.AccessToken, originQueued, p.done)
	}
}

// dispatch replays the request on its own goroutine and settles done with the outcome. It returns
// once the request has been written or has failed, so the next replay always goes out after it.
func (c *Client) dispatch(ctx context.Context, req Request, accessToken string, origin string, done chan<- settlement) {
	written := make(chan struct{})
	var once sync.Once
	markWritten := func() { once.Do(func() { close(written) }) }
	traced := httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { markWritten() },
	})
	go func() {
		resp, err := c.replay(traced, req, accessToken, origin)
		markWritten()
		done <- settlement{resp: resp, err: err}
	}()
	timer := time.NewTimer(maxDispatchWait)
	defer timer.Stop()
	select {
	case <-written:
	case <-timer.C:
		slog.Warn("AUTH CLIENT", "message", "replay not written in time, sending the next one", "path", req.Path)
	}
}

func (c *Client) replay(ctx context.Context, req Request, accessToken string, origin string) (*http.Response, error) {
	c.metrics.Replayed(origin)
	slog.Debug(
		"AUTH CLIENT",
		"message", "replaying the request",
		"method", req.Method,
		"path", req.Path,
		"origin", origin,
		"requestID", req.Header.Get(requestIDHeader),
	)
	return c.send(ctx, req, accessToken)
}

func (c *Client) callRefresh(ctx context.Context) (models.CredentialPair, error) {
	// the refresh serves every parked caller so it is not bound to the caller that started it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	defer cancel()
	current, err := c.store.Get(ctx)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: cannot read the stored credentials: %w", gwerrors.ErrRefreshFailed, err)
	}
	if current.RefreshToken == "" {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, gwerrors.ErrMissingCredentials)
	}
	body, err := json.Marshal(refreshRequest{RefreshToken: current.RefreshToken})
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.refreshPath, nil), bytes.NewReader(body))
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(requestIDHeader, utils.RequestID(ctx))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, err)
	}
	defer closeResponse(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, models.ReadAPIError(resp))
	}
	var tokens models.TokenResponse
	err = json.NewDecoder(io.LimitReader(resp.Body, maxClassifiedBodySize)).Decode(&tokens)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: cannot decode the refresh response: %w", gwerrors.ErrRefreshFailed, err)
	}
	pair := tokens.Pair()
	if pair.AccessToken == "" {
		return models.CredentialPair{}, fmt.Errorf("%w: the refresh response has no access token", gwerrors.ErrRefreshFailed)
	}
	if pair.RefreshToken == "" {
		// the backend did not rotate the refresh token
		pair.RefreshToken = current.RefreshToken
	}
	err = c.store.Set(ctx, pair)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: cannot store the new credentials: %w", gwerrors.ErrRefreshFailed, err)
	}
	return pair, nil
}

func (c *Client) send(ctx context.Context, req Request, accessToken string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path, req.Query), req.bodyReader())
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if accessToken != "" {
		models.CredentialPair{AccessToken: accessToken}.Token().SetAuthHeader(httpReq)
	}
	return c.httpClient.Do(httpReq)
}

// isExpired reports whether the response says that the access token has expired. The part of
// the body that had to be read is put back so the caller sees the response unchanged.
func (c *Client) isExpired(req Request, resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized || req.retried || c.isRefreshPath(req.Path) {
		return false
	}
	consumed, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifiedBodySize))
	restoreBody(resp, consumed)
	if err != nil {
		return false
	}
	var body struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(consumed, &body) != nil {
		return false
	}
	detail, ok := body.Detail.(string)
	return ok && detail == c.sentinel
}

func (c *Client) isRefreshPath(path string) bool {
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(c.refreshPath, "/")
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
