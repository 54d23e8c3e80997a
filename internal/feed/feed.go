// Package feed fetches the upstream lane-closure feed and converts its
// records into domain alerts.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/closurewatch/closurewatch/internal/closure"
)

// Fetcher returns the currently open closures as reported upstream.
type Fetcher interface {
	FetchCurrentAlerts(ctx context.Context) ([]closure.Alert, error)
}

// Error wraps a network or payload failure from the upstream feed. The poll
// cycle aborts on it and retries on the next tick.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("feed %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Upstream wire format: {"Alerts":{"Alert":[...]}} with string-typed fields.
type wireLocation struct {
	Latitude  string `json:"Latitude"`
	Longitude string `json:"Longitude"`
}

type wireAlert struct {
	AlertID             string        `json:"AlertId"`
	RoadName            string        `json:"RoadName"`
	Description         string        `json:"Description"`
	LocationDescription string        `json:"LocationDescription"`
	Direction           string        `json:"Direction"`
	IsBothDirectionFlg  string        `json:"IsBothDirectionFlg"`
	StartMileMarker     string        `json:"StartMileMarker"`
	EndMileMarker       string        `json:"EndMileMarker"`
	RoadwayClosureID    string        `json:"RoadwayClosureId"`
	Location            *wireLocation `json:"Location"`
}

type wireResponse struct {
	Alerts struct {
		Alert []wireAlert `json:"Alert"`
	} `json:"Alerts"`
}

// HTTPFetcher polls the feed endpoint over HTTP.
type HTTPFetcher struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewHTTPFetcher(url string, log *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: 20 * time.Second},
		log:    log,
	}
}

// FetchCurrentAlerts GETs the feed and validates each record. Records
// without an AlertId are dropped with a warning rather than failing the
// whole cycle.
func (f *HTTPFetcher) FetchCurrentAlerts(ctx context.Context) ([]closure.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &Error{Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "closurewatch/1.0 (Go)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "get", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Op: "get", Err: fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read", Err: err}
	}
	return f.parse(body)
}

func (f *HTTPFetcher) parse(body []byte) ([]closure.Alert, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}

	out := make([]closure.Alert, 0, len(wire.Alerts.Alert))
	for _, w := range wire.Alerts.Alert {
		a, err := w.toAlert()
		if err != nil {
			f.log.Warn("dropping malformed feed record", zap.String("alertId", w.AlertID), zap.Error(err))
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (w wireAlert) toAlert() (closure.Alert, error) {
	if strings.TrimSpace(w.AlertID) == "" {
		return closure.Alert{}, fmt.Errorf("missing AlertId")
	}
	a := closure.Alert{
		ID:                  w.AlertID,
		RoadName:            w.RoadName,
		Description:         w.Description,
		LocationDescription: w.LocationDescription,
		Direction:           w.Direction,
		BothDirections:      strings.EqualFold(w.IsBothDirectionFlg, "true"),
		StartMileMarker:     w.StartMileMarker,
		EndMileMarker:       w.EndMileMarker,
		RoadwayClosureID:    w.RoadwayClosureID,
	}
	if w.Location != nil {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(w.Location.Latitude), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(w.Location.Longitude), 64)
		if latErr != nil || lonErr != nil {
			// Coordinates unparseable: keep the alert, the geo filter will
			// exclude it like any other alert without a location.
			return a, nil
		}
		a.Location = &closure.Location{Latitude: lat, Longitude: lon}
	}
	return a, nil
}
