// Package observers provides diagnostic sinks for the workflow's progress
// side channel. Observers never influence execution; dropping them changes
// nothing but the output.
package observers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsight-agent/server/internal/agent/graph"
	"github.com/finsight-agent/server/internal/agent/model"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// NewProgressLogger returns a progress callback that logs one line per node
// invocation. With verbose set, the delta written by each node is also
// printed, pretty-printed, to stdout.
func NewProgressLogger(verbose bool) func(graph.ProgressEvent) {
	return func(ev graph.ProgressEvent) {
		logx.Debug().
			Str("node", ev.Node).
			Str("keys", strings.Join(ev.Keys, ",")).
			Msg("node completed")

		if !verbose {
			return
		}
		fmt.Printf("[%s] wrote: %s\n", ev.Node, strings.Join(ev.Keys, ", "))
		if b, err := json.MarshalIndent(deltaView(ev.Delta), "", "  "); err == nil && string(b) != "{}" {
			fmt.Printf("%s\n", b)
		}
	}
}

// deltaView shapes a delta for printing, omitting unset keys.
func deltaView(d model.Delta) map[string]any {
	view := make(map[string]any)
	if d.Intent != nil {
		view["intent"] = *d.Intent
	}
	if d.Plan != nil {
		view["plan"] = d.Plan
	}
	if d.Error != nil {
		view["error"] = d.Error
	}
	if d.Text != nil {
		view["text"] = d.Text
	}
	if d.Chart != nil {
		view["chart"] = d.Chart
	}
	return view
}
