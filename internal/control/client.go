package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// Identifier is the value the control server reports from /server/details.
	Identifier = "TILEPAD_CONTROLLER_SERVER"

	// DefaultTimeout bounds every request made by the client.
	DefaultTimeout = 5 * time.Second

	detailsPath = "/server/details"

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 512
)

// ServerDetails is the body returned by the details endpoint.
type ServerDetails struct {
	Identifier string `json:"identifier"`
}

// ErrControl is wrapped by every ControlError.
var ErrControl = errors.New("control request failed")

// ControlError is returned when the control server answers a request with a
// non-2xx status.
type ControlError struct {
	Action     Action
	StatusCode int
	Body       string
}

func (e *ControlError) Error() string {
	msg := fmt.Sprintf("%s: %s returned status %d", ErrControl, e.Action, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *ControlError) Unwrap() error { return ErrControl }

// Outcome reports what Notify did.
type Outcome int

const (
	// OutcomeSent means the request was delivered and accepted.
	OutcomeSent Outcome = iota
	// OutcomeSkipped means no control server was running.
	OutcomeSkipped
)

func (o Outcome) String() string {
	if o == OutcomeSkipped {
		return "skipped"
	}
	return "sent"
}

// Client talks to the control server on one port.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL points the client at a different server, replacing the
// loopback address derived from the port.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithLogger sets the logger used for skipped-notification messages.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a Client for the control server listening on 127.0.0.1:port.
func New(port int, opts ...Option) *Client {
	c := &Client{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Probe asks the control server for its details. Any failure, including a
// server that reports a different identifier, is reported as not running.
func (c *Client) Probe(ctx context.Context) (*ServerDetails, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+detailsPath, nil)
	if err != nil {
		c.logger.Debug("building probe request", "err", err)
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("control server unreachable", "url", c.baseURL, "err", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("control server probe failed", "status", resp.StatusCode)
		return nil, false
	}

	var details ServerDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		c.logger.Debug("parsing server details", "err", err)
		return nil, false
	}
	if details.Identifier != Identifier {
		c.logger.Debug("unexpected control server", "identifier", details.Identifier)
		return nil, false
	}

	return &details, true
}

// Notify probes the control server and, when it is running, sends action.
// A missing server is not an error: the action is skipped and OutcomeSkipped
// returned. A non-2xx answer is returned as a *ControlError.
func (c *Client) Notify(ctx context.Context, action Action) (Outcome, error) {
	if err := action.validate(); err != nil {
		return OutcomeSkipped, err
	}

	if _, ok := c.Probe(ctx); !ok {
		c.logger.Info("Tilepad does not appear to be running, skipping", "action", action.String())
		return OutcomeSkipped, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+action.path(), nil)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("sending %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return OutcomeSkipped, &ControlError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	c.logger.Debug("control request sent", "action", action.String())
	return OutcomeSent, nil
}

// ActionKind names a control request.
type ActionKind string

const (
	ActionReloadPlugins ActionKind = "reload_plugins"
	ActionRestartPlugin ActionKind = "restart"
	ActionStopPlugin    ActionKind = "stop"
)

// actionPaths maps each action to its endpoint. A %s is replaced by the
// escaped plugin id.
var actionPaths = map[ActionKind]string{
	ActionReloadPlugins: "/dev/reload_plugins",
	ActionRestartPlugin: "/dev/plugin/%s/restart",
	ActionStopPlugin:    "/dev/plugin/%s/stop",
}

// Action is a control request, optionally aimed at one plugin.
type Action struct {
	Kind     ActionKind
	PluginID string
}

// ReloadPlugins asks the host to reload every plugin.
func ReloadPlugins() Action {
	return Action{Kind: ActionReloadPlugins}
}

// RestartPlugin asks the host to restart one plugin.
func RestartPlugin(id string) Action {
	return Action{Kind: ActionRestartPlugin, PluginID: id}
}

// StopPlugin asks the host to stop one plugin.
func StopPlugin(id string) Action {
	return Action{Kind: ActionStopPlugin, PluginID: id}
}

func (a Action) String() string {
	if a.PluginID == "" {
		return string(a.Kind)
	}
	return fmt.Sprintf("%s %s", a.Kind, a.PluginID)
}

func (a Action) validate() error {
	p, ok := actionPaths[a.Kind]
	if !ok {
		return fmt.Errorf("unknown control action %q", a.Kind)
	}
	if strings.Contains(p, "%s") && a.PluginID == "" {
		return fmt.Errorf("%s requires a plugin id", a.Kind)
	}
	return nil
}

// path returns the endpoint for the action with the plugin id escaped into
// it. validate must have accepted the action.
func (a Action) path() string {
	p := actionPaths[a.Kind]
	if strings.Contains(p, "%s") {
		return fmt.Sprintf(p, url.PathEscape(a.PluginID))
	}
	return p
}
