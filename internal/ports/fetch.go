package ports

import (
	"context"

	"scoop-go/internal/types"
)

// FetcherPort places every requested artifact in the download cache and
// returns one result per request, in request order.
type FetcherPort interface {
	FetchAll(ctx context.Context, requests []types.FetchRequest) []types.FetchResult
}

// ProgressPort observes downloads. Implementations must be safe for
// concurrent use; total is -1 when unknown.
type ProgressPort interface {
	Start(request types.FetchRequest, total int64)
	Advance(request types.FetchRequest, written int64)
	Finish(request types.FetchRequest, err error)
}
