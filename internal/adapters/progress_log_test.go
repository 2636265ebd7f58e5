package adapters

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"scoop-go/internal/types"
)

func TestLogProgressAdapter(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		advances   []int64
		err        error
		goldenName string
	}{
		{
			name:       "known length",
			total:      100,
			advances:   []int64{10, 30, 60, 100},
			goldenName: "progress_known_length",
		},
		{
			name:       "unknown length",
			total:      -1,
			advances:   []int64{1 << 20, 9 << 20, 10 << 20},
			goldenName: "progress_unknown_length",
		},
		{
			name:       "failed download",
			total:      40,
			advances:   []int64{5},
			err:        errors.New("connection reset"),
			goldenName: "progress_failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			adapter := NewLogProgressAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
			request := types.FetchRequest{
				Label:     "tool 1.0",
				URL:       "https://example.invalid/tool.zip",
				CachePath: "/cache/tool#1.0#tool.zip",
			}
			adapter.Start(request, tt.total)
			for _, written := range tt.advances {
				adapter.Advance(request, written)
			}
			adapter.Finish(request, tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogProgressAdapterTracksDuplicateURLsSeparately(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLogProgressAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	first := types.FetchRequest{
		AppKey:    "main/multi",
		Label:     "multi 2.0 (1)",
		URL:       "https://example.invalid/multi.zip",
		CachePath: "/cache/multi#2.0#multi.zip",
	}
	second := first
	second.Label = "multi 2.0 (2)"

	adapter.Start(first, 100)
	adapter.Start(second, 40)
	adapter.Advance(first, 50)
	adapter.Advance(second, 10)
	adapter.Finish(first, nil)
	adapter.Advance(second, 30)
	adapter.Finish(second, nil)

	type progressLine struct {
		Download string `json:"download"`
		Percent  int64  `json:"percent"`
		Message  string `json:"message"`
	}
	var got []progressLine
	decoder := json.NewDecoder(&buf)
	for decoder.More() {
		var line progressLine
		require.NoError(t, decoder.Decode(&line))
		if line.Message == "download progress" {
			got = append(got, line)
		}
	}
	want := []progressLine{
		{Download: "multi 2.0 (1)", Percent: 50, Message: "download progress"},
		{Download: "multi 2.0 (2)", Percent: 25, Message: "download progress"},
		{Download: "multi 2.0 (2)", Percent: 75, Message: "download progress"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected progress lines (-want +got):\n%s", diff)
	}
}
