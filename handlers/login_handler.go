package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/internal/auth"
	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/validator"
)

// normalizer is implemented by requests whose fields are trimmed before validation.
type normalizer interface {
	normalize()
}

type loginMachine interface {
	State() domain.AuthState
	Phone() string
	RequestCode(ctx context.Context, phone string) auth.Result
	SubmitCode(ctx context.Context, phone, code string) auth.Result
	SubmitPassword(ctx context.Context, password string) auth.Result
}

type statusReporter interface {
	Status(ctx context.Context) domain.Status
}

// LoginHandler serves the login forms. Browsers get HTML; clients sending
// "Accept: application/json" get LoginResponse.
type LoginHandler struct {
	machine   loginMachine
	reporter  statusReporter
	channelID int64
}

func NewLoginHandler(machine loginMachine, reporter statusReporter, channelID int64) *LoginHandler {
	return &LoginHandler{
		machine:   machine,
		reporter:  reporter,
		channelID: channelID,
	}
}

type SendCodeRequest struct {
	Phone string `json:"phone" form:"phone" validate:"required,e164"`
}

type VerifyCodeRequest struct {
	Phone string `json:"phone" form:"phone" validate:"omitempty,e164"`
	Code  string `json:"code" form:"code" validate:"required,numeric"`
}

func (r *SendCodeRequest) normalize() {
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *VerifyCodeRequest) normalize() {
	r.Phone = strings.TrimSpace(r.Phone)
	r.Code = strings.TrimSpace(r.Code)
}

// VerifyPasswordRequest is passed through untouched; spaces can be part of a password.
type VerifyPasswordRequest struct {
	Password string `json:"password" form:"password" validate:"required"`
}

type LoginResponse struct {
	State             domain.AuthState  `json:"state"`
	Error             string            `json:"error,omitempty"`
	Kind              domain.ErrorKind  `json:"kind,omitempty"`
	RetryAfterSeconds int               `json:"retryAfterSeconds,omitempty"`
	Details           map[string]string `json:"details,omitempty"`
}

type pageData struct {
	Phone      string
	Error      string
	RetryAfter int
	ChannelID  int64
	Status     *domain.Status
}

// Home godoc
// @Summary Login page
// @Description Renders the form for the current login step, or the status page once signed in
// @Tags login
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (h *LoginHandler) Home(c echo.Context) error {
	return h.respond(c, http.StatusOK, auth.Result{State: h.machine.State()}, "")
}

// SendCode godoc
// @Summary Request a login code
// @Description Asks Telegram to send a login code to the phone number
// @Tags login
// @Accept x-www-form-urlencoded
// @Produce html,json
// @Param phone formData string true "Phone number in E.164 format"
// @Success 200 {object} LoginResponse
// @Failure 422 {object} LoginResponse
// @Failure 429 {object} LoginResponse
// @Failure 502 {object} LoginResponse
// @Router /send_code [post]
func (h *LoginHandler) SendCode(c echo.Context) error {
	var req SendCodeRequest
	if ok, err := h.bindAndValidate(c, &req, domain.KindInvalidPhone); !ok {
		return err
	}

	result := h.machine.RequestCode(c.Request().Context(), req.Phone)
	return h.respond(c, statusFor(result.Err), result, req.Phone)
}

// VerifyCode godoc
// @Summary Submit the login code
// @Description Signs in with the code. Accounts with 2FA move to the password step
// @Tags login
// @Accept x-www-form-urlencoded
// @Produce html,json
// @Param phone formData string false "Phone number, defaults to the one the code was sent to"
// @Param code formData string true "Login code"
// @Success 200 {object} LoginResponse
// @Failure 409 {object} LoginResponse
// @Failure 422 {object} LoginResponse
// @Router /verify_code [post]
func (h *LoginHandler) VerifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if ok, err := h.bindAndValidate(c, &req, domain.KindInvalidCode); !ok {
		return err
	}

	result := h.machine.SubmitCode(c.Request().Context(), req.Phone, req.Code)
	return h.respond(c, statusFor(result.Err), result, req.Phone)
}

// VerifyPassword godoc
// @Summary Submit the 2FA password
// @Tags login
// @Accept x-www-form-urlencoded
// @Produce html,json
// @Param password formData string true "2FA password"
// @Success 200 {object} LoginResponse
// @Failure 409 {object} LoginResponse
// @Failure 422 {object} LoginResponse
// @Router /verify_password [post]
func (h *LoginHandler) VerifyPassword(c echo.Context) error {
	var req VerifyPasswordRequest
	if ok, err := h.bindAndValidate(c, &req, domain.KindInvalidPassword); !ok {
		return err
	}

	result := h.machine.SubmitPassword(c.Request().Context(), req.Password)
	return h.respond(c, statusFor(result.Err), result, "")
}

// bindAndValidate reports false after it has written the error response.
func (h *LoginHandler) bindAndValidate(c echo.Context, req any, kind domain.ErrorKind) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, h.fail(c, http.StatusBadRequest, domain.NewError(kind, "malformed request", nil), nil)
	}

	if n, ok := req.(normalizer); ok {
		n.normalize()
	}

	if err := c.Validate(req); err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			return false, h.fail(c, http.StatusUnprocessableEntity, domain.NewError(kind, ve.Error(), nil), ve.Errors)
		}
		return false, h.fail(c, http.StatusBadRequest, domain.NewError(kind, err.Error(), nil), nil)
	}

	return true, nil
}

func (h *LoginHandler) fail(c echo.Context, code int, err error, details map[string]string) error {
	result := auth.Result{State: h.machine.State(), Err: err}
	if wantsJSON(c) {
		resp := loginResponse(result)
		resp.Details = details
		return c.JSON(code, resp)
	}
	return h.render(c, code, result, h.machine.Phone())
}

func (h *LoginHandler) respond(c echo.Context, code int, result auth.Result, phone string) error {
	if wantsJSON(c) {
		return c.JSON(code, loginResponse(result))
	}
	if phone == "" {
		phone = h.machine.Phone()
	}
	return h.render(c, code, result, phone)
}

func (h *LoginHandler) render(c echo.Context, code int, result auth.Result, phone string) error {
	data := pageData{
		Phone:     phone,
		ChannelID: h.channelID,
	}

	if result.Err != nil && !errors.Is(result.Err, domain.ErrAlreadyAuthorized) {
		data.Error = result.Err.Error()
		data.RetryAfter = retryAfterSeconds(result.Err)
		if data.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(data.RetryAfter))
		}
	}

	page := "phone.html"
	switch result.State {
	case domain.StateCodeRequested:
		page = "code.html"
	case domain.StatePasswordRequired:
		page = "password.html"
	case domain.StateAuthorized:
		page = "authorized.html"
		if h.reporter != nil {
			status := h.reporter.Status(c.Request().Context())
			data.Status = &status
		}
	}

	return c.Render(code, page, data)
}

func loginResponse(result auth.Result) LoginResponse {
	resp := LoginResponse{State: result.State}
	if result.Err != nil {
		resp.Error = result.Err.Error()
		resp.Kind = domain.KindOf(result.Err)
		resp.RetryAfterSeconds = retryAfterSeconds(result.Err)
	}
	return resp
}

// statusFor maps a login error kind to the HTTP status of the response.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case "", domain.KindAlreadyAuthorized, domain.KindCodeDeliveryUnavailable:
		return http.StatusOK
	case domain.KindInvalidPhone, domain.KindInvalidCode, domain.KindInvalidPassword:
		return http.StatusUnprocessableEntity
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func retryAfterSeconds(err error) int {
	d := domain.RetryAfterOf(err)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
