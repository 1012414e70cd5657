package logging

import (
	"encoding/json"
	"fmt"
)

// Listener receives a Stringer event at each phase transition of an
// install/update/delete operation, the same pattern as
// manifest.Listener/Stringer in the apt-repo-builder.
type Listener func(fmt.Stringer)

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventOperationStarted is emitted once at the beginning of install/update/delete.
type EventOperationStarted struct {
	Operation string `json:"operation,omitempty"`
	Package   string `json:"package,omitempty"`
}

func (e EventOperationStarted) String() string { return jsonString(e) }

// EventScriptRan is emitted after a lifecycle script phase executes (or is
// skipped because no script exists for that phase).
type EventScriptRan struct {
	Phase   string `json:"phase,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

func (e EventScriptRan) String() string { return jsonString(e) }

// EventFilesystemApplied is emitted once the filesystem diff/copy step of an
// operation completes.
type EventFilesystemApplied struct {
	Added   int `json:"added,omitempty"`
	Updated int `json:"updated,omitempty"`
	Removed int `json:"removed,omitempty"`
}

func (e EventFilesystemApplied) String() string { return jsonString(e) }

// EventCatalogCommitted is emitted after the catalog transaction commits.
type EventCatalogCommitted struct {
	Package string `json:"package,omitempty"`
}

func (e EventCatalogCommitted) String() string { return jsonString(e) }

// EventRollback is emitted when an operation aborts and its database
// transaction is rolled back.
type EventRollback struct {
	Reason string `json:"reason,omitempty"`
}

func (e EventRollback) String() string { return jsonString(e) }

// EventPartialFailure is emitted when a rollback's filesystem reverse could
// not fully undo applied changes.
type EventPartialFailure struct {
	NotUndone []string `json:"not_undone,omitempty"`
}

func (e EventPartialFailure) String() string { return jsonString(e) }

// EventCleanup is emitted after an update removes its staging directory, or
// after a delete removes the package's scripts directory.
type EventCleanup struct {
	Path string `json:"path,omitempty"`
}

func (e EventCleanup) String() string { return jsonString(e) }
