package pipeline

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/community-enrich/internal/model"
)

// parseResult extracts an EnrichmentResult from raw provider text. Providers
// are asked for bare JSON but routinely wrap it in code fences or prose, so
// parsing is tolerant: strip fences, locate the first JSON object by bracket
// matching, and fall back to line-by-line "key: value" extraction. An
// unparseable response yields an empty result, not an error.
func parseResult(raw string) model.EnrichmentResult {
	var result model.EnrichmentResult

	text := cleanJSON(raw)
	if obj := firstJSONObject(text); obj != "" {
		if err := json.Unmarshal([]byte(obj), &result); err == nil {
			return result
		}
		zap.L().Debug("pipeline: JSON parse failed, trying line extraction",
			zap.String("snippet", snippet(obj)))
	}

	return parseLines(raw)
}

// cleanJSON strips markdown code fences around a model response.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// firstJSONObject returns the first balanced {...} span in s, respecting
// string literals and escapes. Returns "" when no complete object exists.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// resultKeys maps prompt field names (and common provider variants) to
// setters on the result.
var resultKeys = map[string]func(*model.EnrichmentResult, string){
	"street":             func(r *model.EnrichmentResult, v string) { r.Street = v },
	"street address":     func(r *model.EnrichmentResult, v string) { r.Street = v },
	"address":            func(r *model.EnrichmentResult, v string) { r.Street = v },
	"city":               func(r *model.EnrichmentResult, v string) { r.City = v },
	"state":              func(r *model.EnrichmentResult, v string) { r.State = v },
	"zip":                func(r *model.EnrichmentResult, v string) { r.Zip = v },
	"zip code":           func(r *model.EnrichmentResult, v string) { r.Zip = v },
	"contact_name":       func(r *model.EnrichmentResult, v string) { r.ContactName = v },
	"contact name":       func(r *model.EnrichmentResult, v string) { r.ContactName = v },
	"contact_email":      func(r *model.EnrichmentResult, v string) { r.ContactEmail = v },
	"contact email":      func(r *model.EnrichmentResult, v string) { r.ContactEmail = v },
	"email":              func(r *model.EnrichmentResult, v string) { r.ContactEmail = v },
	"contact_phone":      func(r *model.EnrichmentResult, v string) { r.ContactPhone = v },
	"contact phone":      func(r *model.EnrichmentResult, v string) { r.ContactPhone = v },
	"phone":              func(r *model.EnrichmentResult, v string) { r.ContactPhone = v },
	"management_company": func(r *model.EnrichmentResult, v string) { r.ManagementCompany = v },
	"management company": func(r *model.EnrichmentResult, v string) { r.ManagementCompany = v },
}

// parseLines scans for "key: value" lines as a last resort.
func parseLines(raw string) model.EnrichmentResult {
	var result model.EnrichmentResult
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(key, "-*• \t\"'"))
		value = strings.Trim(strings.TrimSpace(value), "\",'")
		if value == "" || strings.EqualFold(value, "unknown") || strings.EqualFold(value, "n/a") || strings.EqualFold(value, "null") {
			continue
		}
		if set, ok := resultKeys[key]; ok {
			set(&result, value)
		}
	}
	return result
}

func snippet(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
