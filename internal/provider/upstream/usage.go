package upstream

import "github.com/tidwall/gjson"

// UsageMap returns the provider's usage object as an untyped map. Anything
// other than a JSON object yields an empty map.
func UsageMap(result gjson.Result) map[string]any {
	if usage, ok := result.Value().(map[string]any); ok {
		return usage
	}
	return map[string]any{}
}
