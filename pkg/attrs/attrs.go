// Package attrs reads values back out of slog-style key/value slices.
package attrs

// String returns the string value paired with key in kv, formatted as
// [key1, value1, key2, value2, ...]. Missing keys and non-string values yield "".
func String(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			if v, ok := kv[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

// FirstString returns the first non-empty value among keys, in order.
func FirstString(kv []any, keys ...string) string {
	for _, key := range keys {
		if v := String(kv, key); v != "" {
			return v
		}
	}
	return ""
}
