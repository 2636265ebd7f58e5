package adapters

import (
	"sync"

	"github.com/rs/zerolog"

	"scoop-go/internal/ports"
	"scoop-go/internal/types"
)

// indeterminateStep is how often progress is logged when the origin did not
// declare a length.
const indeterminateStep = 8 << 20

type progressState struct {
	total    int64
	nextMark int64
}

// LogProgressAdapter reports download progress through zerolog: one line at
// start and finish, and debug lines every quarter (or every 8 MiB when the
// size is unknown).
type LogProgressAdapter struct {
	logger zerolog.Logger
	mu     sync.Mutex
	state  map[string]*progressState
}

func NewLogProgressAdapter(logger zerolog.Logger) *LogProgressAdapter {
	return &LogProgressAdapter{logger: logger, state: map[string]*progressState{}}
}

// progressKey identifies one request. Labels are unique per URL slot of an
// app, so an app listing the same URL twice still tracks each slot.
func progressKey(request types.FetchRequest) string {
	return request.AppKey + "\x00" + request.Label
}

func (a *LogProgressAdapter) Start(request types.FetchRequest, total int64) {
	a.mu.Lock()
	a.state[progressKey(request)] = &progressState{total: total, nextMark: progressStep(total)}
	a.mu.Unlock()
	event := a.logger.Info().Str("download", request.Label).Str("url", request.URL)
	if total >= 0 {
		event = event.Int64("bytes", total)
	}
	event.Msg("downloading")
}

func (a *LogProgressAdapter) Advance(request types.FetchRequest, written int64) {
	a.mu.Lock()
	state, ok := a.state[progressKey(request)]
	if !ok || written < state.nextMark {
		a.mu.Unlock()
		return
	}
	step := progressStep(state.total)
	for state.nextMark <= written {
		state.nextMark += step
	}
	total := state.total
	a.mu.Unlock()

	event := a.logger.Debug().Str("download", request.Label).Int64("written", written)
	if total > 0 {
		event = event.Int64("percent", written*100/total)
	}
	event.Msg("download progress")
}

func (a *LogProgressAdapter) Finish(request types.FetchRequest, err error) {
	a.mu.Lock()
	delete(a.state, progressKey(request))
	a.mu.Unlock()
	if err != nil {
		a.logger.Error().Err(err).Str("download", request.Label).Msg("download failed")
		return
	}
	a.logger.Info().Str("download", request.Label).Str("path", request.CachePath).Msg("download ready")
}

func progressStep(total int64) int64 {
	if total <= 0 {
		return indeterminateStep
	}
	step := total / 4
	if step == 0 {
		return 1
	}
	return step
}

var _ ports.ProgressPort = (*LogProgressAdapter)(nil)
