package calendarapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rentcal/internal/app/dto"
	combinationsapp "rentcal/internal/app/handlers/combinations"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/overview"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/units"
)

// ErrUnexpectedContent is returned when the server answers with something
// other than JSON, typically an HTML login or error page.
var ErrUnexpectedContent = errors.New("calendarapi: unexpected response content type")

// APIError is a non-2xx answer from the calendar API.
type APIError struct {
	Status  int
	Message string
	Kind    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("calendarapi: status %d", e.Status)
	}
	return fmt.Sprintf("calendarapi: status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.HTTP = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.Logger = l }
}

// New builds a client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Units(ctx context.Context) ([]dto.Unit, error) {
	return getList[dto.Unit](ctx, c, "/units", nil)
}

func (c *Client) Groups(ctx context.Context) ([]dto.Group, error) {
	return getList[dto.Group](ctx, c, "/groups", nil)
}

func (c *Client) PriceRules(ctx context.Context, unitID string) ([]dto.PriceRule, error) {
	return getList[dto.PriceRule](ctx, c, "/units/"+url.PathEscape(unitID)+"/price-rules/", nil)
}

func (c *Client) Bookings(ctx context.Context, unitID string) ([]dto.Booking, error) {
	return getList[dto.Booking](ctx, c, "/units/"+url.PathEscape(unitID)+"/bookings/", nil)
}

// Calendar fetches the availability of unitID for the inclusive window [start, end].
func (c *Client) Calendar(ctx context.Context, unitID string, start, end daterange.Date) (dto.Calendar, error) {
	var out dto.Calendar
	q := url.Values{"start": {start.String()}, "end": {end.String()}}
	err := c.do(ctx, http.MethodGet, "/units/"+url.PathEscape(unitID)+"/calendar", q, nil, &out)
	return out, err
}

func (c *Client) CheckAvailability(ctx context.Context, unitID string, stay daterange.Range) (dto.RangeCheck, error) {
	var out dto.RangeCheck
	body := map[string]daterange.Date{"check_in": stay.Start, "check_out": stay.End}
	err := c.do(ctx, http.MethodPost, "/units/"+url.PathEscape(unitID)+"/check-availability", nil, body, &out)
	return out, err
}

type SearchRequest struct {
	GroupID  string         `json:"group_id,omitempty"`
	CheckIn  daterange.Date `json:"check_in"`
	CheckOut daterange.Date `json:"check_out"`
	Guests   int            `json:"guests"`
}

func (c *Client) SearchCombinations(ctx context.Context, req SearchRequest) (combinationsapp.SearchResult, error) {
	var out combinationsapp.SearchResult
	err := c.do(ctx, http.MethodPost, "/combinations/search", nil, req, &out)
	return out, err
}

func (c *Client) CombinedCalendar(ctx context.Context, start, end daterange.Date) (overview.Combined, error) {
	var out overview.Combined
	q := url.Values{"start": {start.String()}, "end": {end.String()}}
	err := c.do(ctx, http.MethodGet, "/calendar/combined", q, nil, &out)
	return out, err
}

// ToCalendar rebuilds the domain calendar the selection controller works on.
func ToCalendar(cal dto.Calendar) *availability.Calendar {
	return availability.FromDays(units.UnitID(cal.UnitID), cal.Days, cal.MinStay, cal.GapDays, cal.CheckIns)
}

// getList accepts both a bare JSON array and a {"results": [...]} envelope.
func getList[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("calendarapi: decode %s: %w", path, err)
		}
		return items, nil
	}
	var env struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("calendarapi: decode %s: %w", path, err)
	}
	return env.Results, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, out any) error {
	endpoint := c.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		c.logError("calendar api request failed", method, path, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if isJSON(resp.Header.Get("Content-Type")) && json.Unmarshal(snippet, &payload) == nil {
			apiErr.Message, apiErr.Kind = payload.Error, payload.Kind
		} else {
			apiErr.Message = strings.TrimSpace(string(snippet))
			if len(apiErr.Message) > 200 {
				apiErr.Message = apiErr.Message[:200]
			}
		}
		return apiErr
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		err := fmt.Errorf("%w: %q from %s", ErrUnexpectedContent, resp.Header.Get("Content-Type"), path)
		c.logError("calendar api returned non-json", method, path, err)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("calendarapi: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) logError(msg, method, path string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "method", method, "path", path, "error", err)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
