package config

import (
	"fmt"
	"time"
)

// Int reads an integer from a service config map. YAML decodes numbers as
// int, JSON-shaped maps as float64.
func Int(cfg map[string]interface{}, key string, def int) int {
	if cfg == nil {
		return def
	}
	switch t := cfg[key].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(t, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

// String reads a string from a service config map.
func String(cfg map[string]interface{}, key, def string) string {
	if cfg == nil {
		return def
	}
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Bool reads a boolean from a service config map.
func Bool(cfg map[string]interface{}, key string, def bool) bool {
	if cfg == nil {
		return def
	}
	if b, ok := cfg[key].(bool); ok {
		return b
	}
	return def
}

// Duration reads "10s"-style strings, or plain numbers as seconds.
func Duration(cfg map[string]interface{}, key string, def time.Duration) time.Duration {
	if cfg == nil {
		return def
	}
	switch t := cfg[key].(type) {
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			return d
		}
	case int:
		return time.Duration(t) * time.Second
	case float64:
		return time.Duration(t * float64(time.Second))
	}
	return def
}
