package session

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/lgulliver/pxl/internal/catalog"
)

// LockRecord is the content of the lock document: who placed it, where, when
type LockRecord struct {
	User      string
	Hostname  string
	StartTime time.Time
}

type lockJSON struct {
	User      string `json:"user"`
	Hostname  string `json:"hostname"`
	StartTime string `json:"start_time"`
}

// String renders the holder as user@host on time
func (l LockRecord) String() string {
	return fmt.Sprintf("%s@%s on %s", l.User, l.Hostname, catalog.FormatTimestamp(l.StartTime))
}

// Age reports how long the lock has been held at now, to the second
func (l LockRecord) Age(now time.Time) time.Duration {
	return now.Sub(l.StartTime).Round(time.Second)
}

// MarshalJSON writes {"user","hostname","start_time"} with second precision
func (l LockRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(lockJSON{
		User:      l.User,
		Hostname:  l.Hostname,
		StartTime: catalog.FormatTimestamp(l.StartTime),
	})
}

// UnmarshalJSON reads a lock document, including ones with naive timestamps
func (l *LockRecord) UnmarshalJSON(data []byte) error {
	var raw lockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.User == "" || raw.Hostname == "" {
		return fmt.Errorf("lock record is missing user or hostname")
	}
	started, err := catalog.ParseTimestamp(raw.StartTime)
	if err != nil {
		return err
	}
	*l = LockRecord{User: raw.User, Hostname: raw.Hostname, StartTime: started}
	return nil
}

// CurrentHolder describes this process: the OS user, the host name and now
func CurrentHolder() LockRecord {
	name := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	} else if env := os.Getenv("USER"); env != "" {
		name = env
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}

	return LockRecord{User: name, Hostname: host, StartTime: time.Now().UTC()}
}
