package slot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const ducklingTimeout = 2 * time.Second

// Duckling клиент внешнего сервиса извлечения времени.
// Любая ошибка сервиса означает "не распознано", наружу не пробрасывается.
type Duckling struct {
	baseURL  string
	locale   string
	timezone string
	client   *http.Client
	logger   *zap.Logger
}

type ducklingEntity struct {
	Dim   string `json:"dim"`
	Value struct {
		Value string `json:"value"`
		From  *struct {
			Value string `json:"value"`
		} `json:"from,omitempty"`
	} `json:"value"`
}

// NewDuckling создаёт клиент; timezone пустой означает UTC
func NewDuckling(baseURL, timezone string, logger *zap.Logger) *Duckling {
	if timezone == "" {
		timezone = "UTC"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Duckling{
		baseURL:  strings.TrimRight(baseURL, "/"),
		locale:   "en_US",
		timezone: timezone,
		client:   &http.Client{Timeout: ducklingTimeout},
		logger:   logger,
	}
}

func (d *Duckling) Name() string { return "duckling" }

func (d *Duckling) Resolve(ctx context.Context, text string, now time.Time) (time.Time, bool) {
	t, err := d.extract(ctx, text, now)
	if err != nil {
		d.logger.Debug("Duckling lookup failed", zap.String("text", text), zap.Error(err))
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	return t.In(now.Location()), true
}

func (d *Duckling) extract(ctx context.Context, text string, now time.Time) (time.Time, error) {
	form := url.Values{
		"text":    {text},
		"locale":  {d.locale},
		"tz":      {d.timezone},
		"reftime": {strconv.FormatInt(now.UnixMilli(), 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/parse", strings.NewReader(form.Encode()))
	if err != nil {
		return time.Time{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("post parse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return time.Time{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var entities []ducklingEntity
	if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
		return time.Time{}, fmt.Errorf("decode response: %w", err)
	}

	for _, ent := range entities {
		if ent.Dim != "time" && ent.Dim != "datetime" {
			continue
		}
		value := ent.Value.Value
		if value == "" && ent.Value.From != nil {
			value = ent.Value.From.Value
		}
		if value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse instant %q: %w", value, err)
		}
		return t, nil
	}

	return time.Time{}, nil
}
