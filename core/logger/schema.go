package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

// enumField restricts a log key to a fixed vocabulary so dashboards can
// group on it. Unknown values are either kept verbatim or dropped.
type enumField struct {
	values      map[string]struct{}
	keepUnknown bool
}

func newEnum(keepUnknown bool, values ...string) enumField {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return enumField{values: set, keepUnknown: keepUnknown}
}

var enumFields = map[string]enumField{
	"status": newEnum(true, "ok", "fail", "skip", "retry", "rate_limited", "cancelled"),
	"cache":  newEnum(false, "hit", "miss", "refresh"),
	"outcome": newEnum(false,
		"ok", "fail", "cancelled", "rate_limited",
		"menu", "reset", "transition", "delegated", "empty_menu",
	),
}

// normalize lowercases v and reports whether the field should be kept.
func (e enumField) normalize(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	if _, ok := e.values[v]; ok || e.keepUnknown {
		return v, true
	}
	return "", false
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"cache",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"session_key",
	"role",
	"state",
	"prev_state",
	"action",
	"endpoint",
	"backend",
	"expired",
	"err",
	"err_code",
	"error_kind",
	"attempt",
	"attempts",
	"delay_ms",
	"elapsed_ms",
	"sessions",
}
