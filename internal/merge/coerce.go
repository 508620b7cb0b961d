package merge

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"consensus-bridge/internal/model"
)

// DefaultWeight is the contribution weight used when none (or a bad one) is given.
const DefaultWeight = 1

var idSeparators = regexp.MustCompile(`[\s,]+`)

// ParseIDList splits a free-form id list on whitespace and commas, dropping
// blanks and duplicates while keeping first-seen order.
func ParseIDList(raw string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, id := range idSeparators.Split(raw, -1) {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// DedupIDs applies ParseIDList to every element of ids.
func DedupIDs(ids []string) []string {
	return ParseIDList(strings.Join(ids, ","))
}

// NormalizeIDToken returns the first id of raw, or "".
func NormalizeIDToken(raw string) string {
	ids := idSeparators.Split(strings.TrimSpace(raw), 2)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// CoerceVote maps exactly -1 to -1 and everything else to +1.
func CoerceVote(v any) int {
	if f, ok := toFloat(v); ok && f == -1 {
		return -1
	}
	return 1
}

// CoerceWeight floors numeric input to a positive integer. Non-numeric,
// non-finite and non-positive inputs yield DefaultWeight.
func CoerceWeight(v any) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return DefaultWeight
	}
	n := math.Floor(f)
	if n < 1 || n > math.MaxInt32 {
		return DefaultWeight
	}
	return int(n)
}

// CoerceTopicKind accepts "knowledge" and treats everything else as a discussion.
func CoerceTopicKind(kind string) string {
	if strings.TrimSpace(kind) == model.TopicKindKnowledge {
		return model.TopicKindKnowledge
	}
	return model.TopicKindDiscussion
}
