package analysis

import "errors"

// ErrAnalysisFailed means an I/O error or protocol violation aborted an
// analysis run. The run fails as a unit; no partial results are exposed.
var ErrAnalysisFailed = errors.New("analysis failed")
