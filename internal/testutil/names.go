package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var nameCounter atomic.Int64

// AgentName returns a process-unique agent name derived from the test name,
// so log output from parallel tests can be told apart.
func AgentName(prefix, tname string) string {
	id := nameCounter.Add(1)
	return fmt.Sprintf("%s-%s-%d", prefix, strings.ReplaceAll(tname, `/`, `-_-`), id)
}
