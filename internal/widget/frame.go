package widget

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// ProtocolVersion is sent as the v query parameter.
const ProtocolVersion = "1"

const (
	DefaultTheme  = "light"
	DefaultLang   = "nl"
	DefaultHeight = 700
	// MaxHeight caps frame heights requested on init or by WIDGET_RESIZE.
	MaxHeight = 20000
)

// FrameOptions are the query parameters of the booking frame.
type FrameOptions struct {
	SalonID string
	Theme   string
	Lang    string
	Config  map[string]any
}

// FrameURL builds the iframe src for base, a URL to the booking page.
func FrameURL(base string, o FrameOptions) (string, error) {
	if o.SalonID == "" {
		return "", errors.New("widget: frame url: salon id is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("widget: frame url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("widget: frame url: base %q must be http(s)", base)
	}

	q := u.Query()
	q.Set("salon", o.SalonID)
	q.Set("theme", orDefault(o.Theme, DefaultTheme))
	q.Set("lang", orDefault(o.Lang, DefaultLang))
	q.Set("v", ProtocolVersion)
	if len(o.Config) > 0 {
		raw, err := json.Marshal(o.Config)
		if err != nil {
			return "", fmt.Errorf("widget: frame url: encode config: %w", err)
		}
		q.Set("cfg", base64.StdEncoding.EncodeToString(raw))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeFrameConfig reverses the cfg parameter. An empty value is an empty config.
func DecodeFrameConfig(cfg string) (map[string]any, error) {
	if cfg == "" {
		return map[string]any{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(cfg)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(cfg)
		if err != nil {
			return nil, fmt.Errorf("widget: decode config: %w", err)
		}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("widget: decode config: %w", err)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
