package stream

import (
	"strings"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

func parseTypes(raw string) map[surety.EventType]bool {
	out := map[surety.EventType]bool{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out[surety.EventType(p)] = true
		}
	}
	return out
}
