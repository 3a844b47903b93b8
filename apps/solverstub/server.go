package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/examplan/core"
	"github.com/trezcool/examplan/core/schedule"
	usr "github.com/trezcool/examplan/core/user"
)

var (
	errHTTPUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errHTTPForbidden      = echo.NewHTTPError(http.StatusForbidden, "insufficient privileges")
	errHTTPNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errMissingCredentials = echo.NewHTTPError(http.StatusBadRequest, "missing username or password")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")

	errInvalidToken   = errors.New("invalid token")
	errClaimsNotFound = errors.New("claims object not found in echo.Context")
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		DB         *memDB
		Validate   *validator.Validate
		Translator ut.Translator
		// Shutdown receives SIGTERM whenever a core.shutdown error is caught,
		// so main can stop the server gracefully.
		Shutdown       chan<- os.Signal
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Stop(ctx context.Context) error
	}

	server struct {
		deps ServerDeps
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps: deps,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	api := s.app.Group("/api")
	auth := authMiddleware(conf)

	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)
	api.GET("/auth/me", s.me, auth)
	api.GET("/public/schedule", s.publicSchedule)
	api.POST("/schedule", s.generate, auth, adminMiddleware())
	api.POST("/admin/schedule/publish", s.publish, auth, adminMiddleware())
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.deps.Conf.Stub.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// signalShutdown is called whenever a core.shutdown error is caught, in order to
// gracefully shutdown the Server.
func (s *server) signalShutdown() {
	if s.deps.Shutdown != nil {
		s.deps.Shutdown <- syscall.SIGTERM
	}
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Examplan solver stub is running.")
}

// Handlers

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *server) login(ctx echo.Context) error {
	var creds credentials
	if err := ctx.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if creds.Username == "" || creds.Password == "" {
		return errMissingCredentials
	}

	u, err := s.deps.DB.getUserByUsername(creds.Username)
	if err != nil {
		return errInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(creds.Password)); err != nil {
		return errInvalidCredentials
	}

	claims := getUserClaims(s.deps.Conf, u)
	token, err := generateToken(s.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "signing token")
	}
	ctx.SetCookie(newAuthCookie(token, time.Unix(claims.ExpiresAt, 0)))

	return ctx.JSON(http.StatusOK, echo.Map{
		"ok":    true,
		"user":  usr.User{ID: u.ID, Username: u.Username, Role: u.Role},
		"token": token,
	})
}

func (s *server) logout(ctx echo.Context) error {
	ctx.SetCookie(newAuthCookie("", time.Unix(0, 0)))
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (s *server) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errHTTPUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return errHTTPUnauthorized
	}
	// the token may outlive the account
	u, err := s.deps.DB.getUserByID(id)
	if err != nil {
		return errHTTPUnauthorized
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"ok":   true,
		"user": usr.User{ID: u.ID, Username: u.Username, Role: u.Role},
	})
}

func (s *server) publicSchedule(ctx echo.Context) error {
	sched, err := s.deps.DB.publishedSchedule()
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no published schedule")
	}
	if !json.Valid(sched.ResultJSON) {
		// the store can no longer be trusted
		return core.NewShutdownError(fmt.Sprintf("published schedule %d is corrupted", sched.ID))
	}
	return ctx.JSONBlob(http.StatusOK, sched.ResultJSON)
}

type generateRequest struct {
	Algo   string          `json:"algo"`
	Config schedule.Config `json:"config"`
}

func (s *server) generate(ctx echo.Context) error {
	var data generateRequest
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if data.Algo == "" {
		data.Algo = s.deps.Conf.Solver.Algorithm
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errHTTPUnauthorized
	}
	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)

	res := generateResult(data.Algo, data.Config)

	cfgJSON, err := json.Marshal(data.Config)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "marshalling result")
	}
	name := fmt.Sprintf("Сессия %s – %s", data.Config.Session.Start, data.Config.Session.End)
	sched := s.deps.DB.createSchedule(userID, name, cfgJSON, resJSON)

	res.ScheduleID = &sched.ID
	res.ScheduleName = sched.Name
	return ctx.JSON(http.StatusOK, res)
}

type publishRequest struct {
	ScheduleID int64 `json:"scheduleId" validate:"required"`
}

func (s *server) publish(ctx echo.Context) error {
	var data publishRequest
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if err := s.deps.Validate.Struct(&data); err != nil {
		return err
	}

	if err := s.deps.DB.publishSchedule(data.ScheduleID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "schedule not found")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true})
}

// newHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders every
// error as the original service's `{"error": ...}` body shape. signalShutdown is
// called whenever a core.shutdown error is caught.
func newHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			if logger != nil {
				logger.Error(fmt.Sprintf("request failed: %+v", err))
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !ctx.Response().Committed {
			var werr error
			if ctx.Request().Method == http.MethodHead {
				werr = ctx.NoContent(code)
			} else {
				werr = ctx.JSON(code, message)
			}
			if werr != nil && logger != nil {
				logger.Error(fmt.Sprintf("writing error response: %v", werr))
			}
		}
	}
}
