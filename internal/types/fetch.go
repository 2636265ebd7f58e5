package types

// FetchRequest describes one artifact to place in the download cache.
type FetchRequest struct {
	AppKey       string
	Label        string
	URL          string
	FileName     string
	CachePath    string
	ExpectedHash string
	Cookies      map[string]string
}

// FetchResult is the outcome of one FetchRequest. Total is -1 when the
// origin did not declare a length.
type FetchResult struct {
	Request FetchRequest
	Path    string
	Written int64
	Total   int64
	Reused  bool
	Err     error
}

func (r FetchResult) OK() bool {
	return r.Err == nil
}
