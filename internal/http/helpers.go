package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/report"
)

const (
	headerRequestID       = "X-Request-ID"
	headerSnapshotVersion = "X-Snapshot-Version"
	maxBodyBytes          = 1 << 20
)

var (
	errRateLimited = errors.New("rate limit exceeded, try again later")
	errBadBody     = errors.New("malformed JSON body")
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFor(r).ErrorContext(r.Context(), "Encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := errorBody{Error: err.Error()}
	var pe *core.ParseError
	var ve *core.ValidationError
	switch {
	case errors.As(err, &pe):
		body.Field = pe.Field
	case errors.As(err, &ve):
		body.Field = ve.Field
	}
	writeJSON(w, r, status, body)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsInputError(err):
		return http.StatusUnprocessableEntity
	case core.IsStorageError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes the mapped error response.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	loggerFor(r).Log(r.Context(), level, "Request failed",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	writeError(w, r, status, err)
}

// decodeJSON reads a single JSON value into v. Input errors raised while
// decoding, such as a malformed amount, pass through unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if core.IsInputError(err) {
			return err
		}
		return errors.Join(errBadBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

// listQuery reads the expense list filters from the URL.
func listQuery(r *http.Request) report.Query {
	q := r.URL.Query()
	var cats []string
	for _, c := range q["category"] {
		if c = sanitizeInput(c); c != "" {
			cats = append(cats, c)
		}
	}
	return report.Query{
		Categories: cats,
		Date:       sanitizeInput(q.Get("date")),
		Month:      sanitizeInput(q.Get("month")),
		Payer:      sanitizeInput(q.Get("by")),
		Search:     sanitizeInput(q.Get("q")),
		From:       sanitizeInput(q.Get("from")),
		To:         sanitizeInput(q.Get("to")),
	}
}

// sanitizeInput trims and strips control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// requestID keeps a caller-supplied ID when it is a sane token and mints a
// UUID otherwise.
func requestID(r *http.Request) string {
	if id := r.Header.Get(headerRequestID); id != "" && len(id) <= 64 && !strings.ContainsFunc(id, isUnsafeIDRune) {
		return id
	}
	return uuid.NewString()
}

func isUnsafeIDRune(r rune) bool {
	return r <= ' ' || r > '~'
}

func setSnapshotVersion(w http.ResponseWriter, v uint64) {
	w.Header().Set(headerSnapshotVersion, strconv.FormatUint(v, 10))
}

func loggerFor(r *http.Request) *log.Logger {
	return log.FromContext(r.Context())
}
