package userdata

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mager/tastebud/spotify"
	"github.com/mager/tastebud/tastebud"
	"github.com/samber/lo"
)

func timeRange(q url.Values) (string, error) {
	tr := q.Get("time_range")
	if tr == "" {
		return "medium_term", nil
	}
	if !lo.Contains(spotify.TimeRanges, tr) {
		return "", tastebud.Missing("time_range must be one of " + strings.Join(spotify.TimeRanges, ", "))
	}
	return tr, nil
}

func limit(q url.Values, def int) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, tastebud.Missing("limit must be a positive integer")
	}
	return n, nil
}

// trackIDs accepts both track_ids=a,b and track_ids=a&track_ids=b.
func trackIDs(q url.Values) []string {
	var ids []string
	for _, v := range q["track_ids"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
