package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// LogRequestConfig configures LogRequest. Logger is required.
type LogRequestConfig struct {
	Logger  Logger
	Skipper Skipper
	// ResponseBody reports whether the JSON response body is captured.
	// Streaming routes must answer false: their body never completes.
	ResponseBody func(c echo.Context) bool
}

type bodyDumpWriter struct {
	io.Writer
	http.ResponseWriter
}

// LogRequest writes one line per request once it completes: 5xx at error,
// 4xx at warn, everything else at info.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.ResponseBody == nil {
		config.ResponseBody = func(echo.Context) bool { return true }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			reqBody := readJSONBody(req)

			var resBuf *bytes.Buffer
			if config.ResponseBody(c) {
				resBuf = new(bytes.Buffer)
				res.Writer = &bodyDumpWriter{
					Writer:         io.MultiWriter(res.Writer, resBuf),
					ResponseWriter: res.Writer,
				}
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []any{
				"status", res.Status,
				"method", req.Method,
				"uri", req.RequestURI,
				"route", c.Path(),
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"request_id", GetRequestID(c),
			}
			if sessionID := GetSessionID(c); sessionID != "" {
				args = append(args, "session_id", sessionID)
			}
			if params := pathParams(c); len(params) > 0 {
				args = append(args, "params", params)
			}
			if query := c.QueryParams(); len(query) > 0 {
				args = append(args, "query", query)
			}
			if reqBody != nil {
				args = append(args, "request_body", reqBody)
			}
			if resBuf != nil && strings.HasPrefix(res.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				args = append(args, "response_body", json.RawMessage(resBuf.Bytes()))
			}

			const message = "http request"
			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw(message, args...)
			case res.Status >= http.StatusBadRequest:
				config.Logger.Warnw(message, args...)
			default:
				config.Logger.Infow(message, args...)
			}
			return err
		}
	}
}

// readJSONBody drains and restores a JSON request body.
func readJSONBody(req *http.Request) json.RawMessage {
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return nil
	}
	body, _ := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return nil
	}
	return body
}

func pathParams(c echo.Context) map[string]string {
	names := c.ParamNames()
	if len(names) == 0 {
		return nil
	}
	params := make(map[string]string, len(names))
	for _, name := range names {
		params[name] = c.Param(name)
	}
	return params
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
