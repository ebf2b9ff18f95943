package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"github.com/John-Robertt/free-servers/internal/model"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBytes     = 5 * 1024 * 1024
	defaultMaxRedirects = 5

	// errorBodyLimit caps how much of a non-2xx body is read for diagnostics.
	errorBodyLimit = 4 * 1024
)

type Options struct {
	Timeout      time.Duration // default 30s
	MaxBytes     int64         // default 5 MiB
	MaxRedirects int           // default 5

	// Token is sent as "Authorization: Bearer <Token>" when non-empty.
	Token string
}

type FetchError struct {
	// Status is the upstream HTTP status for a non-2xx reply. Otherwise it
	// classifies the failure: 400 bad input, 422 bad body, 502 transport
	// failure, 504 timeout.
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.AppError.Format(e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errRedirectCrossHost  = errors.New("authenticated redirect to another host")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// FetchTextWithOptions performs one GET and returns the body as UTF-8 text.
func FetchTextWithOptions(ctx context.Context, rawURL string, opt Options) (string, error) {
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRedirects := opt.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = defaultMaxRedirects
	}
	maxBytes := opt.MaxBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}
	if maxBytes <= 0 {
		return "", newFetchError(http.StatusBadRequest, "INVALID_ARGUMENT", "响应大小上限必须大于 0", rawURL, nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", newFetchError(http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https URL", rawURL, errors.Join(errInvalidURLOrScheme, err))
	}

	client, closeIdle := newClient(u.Host, opt.Token, timeout, maxRedirects)
	defer closeIdle()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", newFetchError(http.StatusBadRequest, "INVALID_ARGUMENT", "请求 URL 不合法", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		switch {
		case errors.Is(err, errTooManyRedirects):
			return "", newFetchError(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("重定向次数超过上限（>%d）", maxRedirects), rawURL, err)
		case errors.Is(err, errRedirectBadScheme):
			return "", newFetchError(http.StatusBadRequest, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", rawURL, err)
		case errors.Is(err, errRedirectCrossHost):
			return "", newFetchError(http.StatusBadRequest, "INVALID_ARGUMENT", "携带凭据时不允许重定向到其他主机", rawURL, err)
		case isTimeout(err):
			return "", newFetchError(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", rawURL, err)
		}
		return "", newFetchError(http.StatusBadGateway, "FETCH_FAILED", "拉取远程资源失败", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fe := newFetchError(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode), rawURL, nil)
		fe.Status = resp.StatusCode
		fe.AppError.Hint = upstreamErrorHint(resp.Body)
		return "", fe
	}

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", newFetchError(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", rawURL, err)
		}
		return "", newFetchError(http.StatusBadGateway, "FETCH_FAILED", "读取上游响应失败", rawURL, err)
	}
	if int64(len(body)) > maxBytes {
		return "", newFetchError(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("远程资源过大（>%d bytes）", maxBytes), rawURL, nil)
	}
	if !utf8.Valid(body) {
		return "", newFetchError(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "远程资源不是合法 UTF-8 文本", rawURL, nil)
	}

	return string(body), nil
}

func newClient(host string, token string, timeout time.Duration, maxRedirects int) (*http.Client, func()) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{
		Timeout:   timeout,
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via holds the previous requests: 1st redirect => len(via)==1.
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			// The bearer transport re-signs every hop.
			if token != "" && req.URL.Host != host {
				return errRedirectCrossHost
			}
			return nil
		},
	}
	if token != "" {
		client.Transport = &oauth2.Transport{
			Base:   tr,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		}
	}
	return client, tr.CloseIdleConnections
}

func isTimeout(err error) bool {
	// Go may wrap errors (e.g. *url.Error).
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// apiEnvelope is the error envelope of the Cloudflare v4 API.
type apiEnvelope struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func upstreamErrorHint(body io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	if err != nil || len(b) == 0 {
		return ""
	}
	var env apiEnvelope
	if json.Unmarshal(b, &env) == nil && len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, fmt.Sprintf("%d: %s", e.Code, e.Message))
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func newFetchError(status int, code, message, rawURL string, cause error) *FetchError {
	return &FetchError{
		Status: status,
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   model.StageFetchKV,
			URL:     redactURL(rawURL),
		},
		Cause: cause,
	}
}

// redactURL drops userinfo and query so credentials never reach logs.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u == nil {
		return rawURL
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
