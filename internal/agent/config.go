package agent

// Config is the flat per-agent configuration map. Recognized keys are
// strategy-specific; unknown keys are ignored and missing keys fall back to
// each strategy's documented default. Values arriving from YAML may be
// decoded as int or float64, so the accessors coerce numeric types.
type Config map[string]any

// Float returns the float value for key, or def when absent or of the
// wrong type.
func (c Config) Float(key string, def float64) float64 {
	if c == nil {
		return def
	}

	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Int returns the integer value for key, or def when absent or of the
// wrong type.
func (c Config) Int(key string, def int) int {
	if c == nil {
		return def
	}

	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// String returns the string value for key, or def when absent or of the
// wrong type.
func (c Config) String(key, def string) string {
	if c == nil {
		return def
	}

	if v, ok := c[key].(string); ok {
		return v
	}

	return def
}

// Bool returns the boolean value for key, or def when absent or of the
// wrong type.
func (c Config) Bool(key string, def bool) bool {
	if c == nil {
		return def
	}

	if v, ok := c[key].(bool); ok {
		return v
	}

	return def
}
