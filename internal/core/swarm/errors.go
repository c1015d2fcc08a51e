package swarm

import "errors"

// ErrSwarmClosed 群组已关闭
var ErrSwarmClosed = errors.New("swarm closed")
