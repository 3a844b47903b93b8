package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/examplan/core"
	"github.com/trezcool/examplan/core/schedule"
	"github.com/trezcool/examplan/core/user"
	"github.com/trezcool/examplan/services/solver"
)

// API is the slice of the scheduling service the controller needs.
type API interface {
	Me(ctx context.Context) (user.User, error)
	Login(ctx context.Context, username, password string) (user.User, error)
	Logout(ctx context.Context) error
	PublicSchedule(ctx context.Context) (schedule.Result, error)
	Generate(ctx context.Context, algo string, cfg schedule.Config) (schedule.Result, error)
	Publish(ctx context.Context, scheduleID int64) error
}

var (
	// ErrBusy signals a double submission while a previous call is in flight.
	ErrBusy = errors.New("another request is already in progress")

	errNotAuthenticated = errors.New("sign in to perform this action")
	errInsufficientRole = errors.New("insufficient privileges")
	errSessionExpired   = errors.New("session expired, please sign in again")
	errNetworkFailure   = errors.New("network error, please try again")
	errLoginFailed      = errors.New("authentication failed")
	errNothingToPublish = errors.New("nothing to publish: generate a schedule first")
	errGenerationFailed = errors.New("schedule generation failed")
	errPublishingFailed = errors.New("publishing failed")
)

// Controller owns the authenticated identity and mediates every privileged call
// to the scheduling service, translating transport failures into state
// transitions. States: Anonymous (usr == nil) and Authenticated; a 401 on any
// privileged call drops back to Anonymous, a 403 does not.
type Controller struct {
	api   API
	store *schedule.Store
	view  *schedule.View
	log   core.Logger
	algo  string

	mu        sync.Mutex
	usr       *user.User
	authErr   string
	loginBusy bool
	genBusy   bool
	// genSeq invalidates stale in-flight generate responses: a reply is applied
	// only if no newer request or de-auth happened since it was issued.
	genSeq       uint64
	scheduleID   *int64
	scheduleName string
	published    bool
}

func NewController(api API, store *schedule.Store, view *schedule.View, algo string, log core.Logger) *Controller {
	return &Controller{
		api:   api,
		store: store,
		view:  view,
		algo:  algo,
		log:   log,
	}
}

// CurrentUser returns the authenticated identity, or nil when anonymous.
func (c *Controller) CurrentUser() *user.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.usr == nil {
		return nil
	}
	usr := *c.usr
	return &usr
}

func (c *Controller) IsAuthenticated() bool {
	return c.CurrentUser() != nil
}

// AuthError returns the last login failure message; cleared by a successful login.
func (c *Controller) AuthError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authErr
}

// ScheduleID returns the publishable schedule identifier held from the last
// successful generation, if any.
func (c *Controller) ScheduleID() *int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scheduleID == nil {
		return nil
	}
	id := *c.scheduleID
	return &id
}

func (c *Controller) ScheduleName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduleName
}

// Published reports whether the held schedule was published in this session.
func (c *Controller) Published() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

// CanPublish reports whether publish is currently enabled: an admin session
// holding a persisted schedule id.
func (c *Controller) CanPublish() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return user.Can(c.usr, user.ActionPublishSchedule) && c.scheduleID != nil
}

// Bootstrap probes the identity endpoint and fetches the published schedule.
// It is best-effort: any failure leaves the controller Anonymous and the view
// untouched, with nothing surfaced to the user.
func (c *Controller) Bootstrap(ctx context.Context) {
	if usr, err := c.api.Me(ctx); err == nil {
		c.mu.Lock()
		c.usr = &usr
		c.mu.Unlock()
	} else if c.log != nil {
		c.log.Debug(fmt.Sprintf("identity probe failed: %v", err))
	}

	if res, err := c.api.PublicSchedule(ctx); err == nil {
		c.view.SetResult(res)
	} else if c.log != nil {
		c.log.Debug(fmt.Sprintf("public schedule fetch failed: %v", err))
	}
}

// Login authenticates and transitions to Authenticated on success. A server
// rejection surfaces the server's error text; a transport failure surfaces a
// generic network message. Either way the controller stays Anonymous.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	if c.loginBusy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loginBusy = true
	c.mu.Unlock()

	usr, err := c.api.Login(ctx, username, password)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loginBusy = false

	if err != nil {
		var loginErr error
		if apiErr, ok := errors.Cause(err).(*solver.APIError); ok {
			if apiErr.Message != "" {
				loginErr = errors.New(apiErr.Message)
			} else {
				loginErr = errLoginFailed
			}
		} else {
			loginErr = errNetworkFailure
		}
		c.authErr = loginErr.Error()
		return loginErr
	}

	c.usr = &usr
	c.authErr = ""
	return nil
}

// Logout invalidates the server-side session best-effort, then unconditionally
// drops to Anonymous, clearing the held schedule id and publish status: a new
// login session cannot assume the prior generation is still publishable.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.api.Logout(ctx); err != nil && c.log != nil {
		c.log.Warn(fmt.Sprintf("server-side logout failed: %v", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deauthLocked()
}

// deauthLocked drops to Anonymous and invalidates anything tied to the session.
func (c *Controller) deauthLocked() {
	c.usr = nil
	c.scheduleID = nil
	c.scheduleName = ""
	c.published = false
	c.genSeq++ // discard any in-flight generate response
}

// requireLocked guards privileged actions; rejected locally, no network call.
func (c *Controller) requireLocked(action user.Action) error {
	if c.usr == nil {
		return errNotAuthenticated
	}
	if !user.Can(c.usr, action) {
		return errInsufficientRole
	}
	return nil
}

// Generate posts the current config snapshot to the solver and replaces the
// view's result on success. Any failure path clears the held schedule id but
// keeps the previously displayed result intact.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireLocked(user.ActionGenerateSchedule); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.genBusy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.genBusy = true
	c.genSeq++
	seq := c.genSeq
	c.mu.Unlock()

	cfg := c.store.Config()
	res, err := c.api.Generate(ctx, c.algo, cfg)

	c.mu.Lock()
	c.genBusy = false
	if err != nil {
		defer c.mu.Unlock()
		// generation without a persisted id must not be publishable
		c.scheduleID = nil
		c.scheduleName = ""
		c.published = false
		return c.privilegedCallErrLocked(err, errGenerationFailed)
	}
	// the stale check and the view update must be one step, or a superseded
	// response could still overwrite the view; view subscribers must not call
	// back into the Controller
	if c.applyGenerationLocked(seq, res) {
		c.view.SetResult(res)
	}
	c.mu.Unlock()
	return nil
}

// applyGenerationLocked records the generation outcome unless a newer request
// or a de-auth superseded it. Reports whether the result should be displayed.
func (c *Controller) applyGenerationLocked(seq uint64, res schedule.Result) bool {
	if seq != c.genSeq {
		if c.log != nil {
			c.log.Debug("discarding stale generate response")
		}
		return false
	}
	c.scheduleID = res.ScheduleID
	c.scheduleName = res.ScheduleName
	c.published = false
	return true
}

// Publish flips the server-side visibility of the held schedule. It never
// touches the displayed result.
func (c *Controller) Publish(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireLocked(user.ActionPublishSchedule); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.scheduleID == nil {
		c.mu.Unlock()
		return errNothingToPublish
	}
	id := *c.scheduleID
	c.mu.Unlock()

	err := c.api.Publish(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.privilegedCallErrLocked(err, errPublishingFailed)
	}
	c.published = true
	return nil
}

// privilegedCallErrLocked maps a failed privileged call onto the session state:
// 401 means the session died (drop to Anonymous), 403 means the user is still
// authenticated but not allowed. The two must never be conflated.
func (c *Controller) privilegedCallErrLocked(err error, generic error) error {
	switch {
	case solver.IsUnauthorized(err):
		c.deauthLocked()
		return errSessionExpired
	case solver.IsForbidden(err):
		return errInsufficientRole
	default:
		if _, ok := errors.Cause(err).(*solver.APIError); ok {
			return generic
		}
		return errNetworkFailure
	}
}
