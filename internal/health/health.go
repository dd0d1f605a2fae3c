package health

import (
	"encoding/json"
	"os"
	"time"

	"FlashMonitor/internal/lock"
)

// Report is the read-only health snapshot for external monitoring. Producing
// it never mutates any persisted state.
type Report struct {
	OK      bool            `json:"ok"`
	Now     int64           `json:"now"`
	Monitor MonitorStatus   `json:"monitor"`
	State   json.RawMessage `json:"state"`
}

// MonitorStatus describes the lock resource and its owner.
type MonitorStatus struct {
	LockFile bool `json:"lockFile"`
	PID      int  `json:"pid"`
	Alive    bool `json:"alive"`
}

// Collect inspects the lock and state files. The report is unhealthy when no
// live owner holds the lock.
func Collect(lockPath, statePath string) Report {
	report := Report{Now: time.Now().UnixMilli(), State: json.RawMessage("null")}

	if _, err := os.Stat(lockPath); err == nil {
		report.Monitor.LockFile = true
	}
	pid, alive := lock.OwnerAlive(lockPath)
	report.Monitor.PID = pid
	report.Monitor.Alive = alive
	report.OK = alive

	if raw, err := os.ReadFile(statePath); err == nil && json.Valid(raw) {
		report.State = json.RawMessage(raw)
	}

	return report
}
