package sse

import "errors"

// ErrMultilineField indicates an id or event field value containing a
// line break, which cannot be represented in a single SSE field line.
var ErrMultilineField = errors.New("field value contains a line break")
