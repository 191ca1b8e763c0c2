package events

import (
	"time"

	"github.com/atomicstack/chsearch/internal/logging"
)

type SearchTracer struct{}

type ThrottleTracer struct{}

var (
	Search   = SearchTracer{}
	Throttle = ThrottleTracer{}
)

func (SearchTracer) Request(traceID string, seq uint64, query string) {
	logging.Trace("search.request", map[string]interface{}{"trace": traceID, "seq": seq, "query": query})
}

func (SearchTracer) Accept(traceID string, seq uint64, results int, elapsed time.Duration) {
	logging.Trace("search.accept", map[string]interface{}{
		"trace":   traceID,
		"seq":     seq,
		"results": results,
		"elapsed": elapsed.String(),
	})
}

func (SearchTracer) Stale(traceID string, seq, watermark uint64) {
	logging.Trace("search.stale", map[string]interface{}{"trace": traceID, "seq": seq, "watermark": watermark})
}

func (SearchTracer) Fail(traceID string, seq uint64, err error) {
	if err == nil {
		return
	}
	logging.Trace("search.fail", map[string]interface{}{"trace": traceID, "seq": seq, "error": err.Error()})
}

func (SearchTracer) IndicatorStart(seq uint64) {
	logging.Trace("search.indicator.start", map[string]interface{}{"seq": seq})
}

func (SearchTracer) IndicatorStop(seq uint64) {
	logging.Trace("search.indicator.stop", map[string]interface{}{"seq": seq})
}

func (SearchTracer) Detach() {
	logging.Trace("search.detach", nil)
}

func (ThrottleTracer) Leading(source string) {
	logging.Trace("throttle.leading", map[string]interface{}{"source": source})
}

func (ThrottleTracer) Schedule(source string, after time.Duration) {
	logging.Trace("throttle.schedule", map[string]interface{}{"source": source, "after": after.String()})
}

func (ThrottleTracer) Trailing(token uint64) {
	logging.Trace("throttle.trailing", map[string]interface{}{"token": token})
}
