package errors

import "errors"

// ErrCandidateGone 条件删除未命中：候选申请已被其他并发请求配对删除
var ErrCandidateGone = errors.New("候选换班申请已被其他请求配对")
