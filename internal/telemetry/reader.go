package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// DefaultReadLimit caps ReadEvents when the filter does not set one.
const DefaultReadLimit = 500

// maxEventLineSize bounds a single JSONL line on read.
const maxEventLineSize = 1024 * 1024

// Filter bounds a read over the event log. Zero fields are unbounded.
type Filter struct {
	Start  time.Time
	End    time.Time
	Types  []string
	Search string
	Limit  int
}

// Stats aggregates the whole event log into dashboard counters.
type Stats struct {
	TotalSessions     int    `json:"total_sessions"`
	TotalChatTurns    int    `json:"total_chat_turns"`
	TotalProposals    int    `json:"total_proposals"`
	ProposalsApproved int    `json:"proposals_approved"`
	ProposalsRejected int    `json:"proposals_rejected"`
	TotalErrors       int    `json:"total_errors"`
	FirstEvent        string `json:"first_event,omitempty"`
	LastEvent         string `json:"last_event,omitempty"`
}

// LogFile describes one day of telemetry on disk.
type LogFile struct {
	Name      string `json:"filename"`
	Date      string `json:"date"`
	SizeBytes int64  `json:"size_bytes"`
}

// ReadEvents returns events matching the filter, newest first. Reading works
// regardless of the collection toggle; corrupt lines and unreadable files are
// skipped, never surfaced.
func (r *Recorder) ReadEvents(filter Filter) []Event {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	var startDay, endDay time.Time
	if !filter.Start.IsZero() {
		startDay = dayOf(filter.Start)
	}
	if !filter.End.IsZero() {
		endDay = dayOf(filter.End)
	}
	search := strings.ToLower(filter.Search)

	type stamped struct {
		ev Event
		ts time.Time
	}
	var collected []stamped
	for _, file := range r.logFiles() {
		if !startDay.IsZero() && file.date.Before(startDay) {
			continue
		}
		if !endDay.IsZero() && file.date.After(endDay) {
			continue
		}
		scanEvents(file.path, func(ev Event) bool {
			if len(filter.Types) > 0 && !slices.Contains(filter.Types, ev.EventType) {
				return true
			}
			ts, _ := time.Parse(time.RFC3339, ev.Timestamp)
			if !filter.Start.IsZero() && ts.Before(filter.Start) {
				return true
			}
			if !filter.End.IsZero() && ts.After(filter.End) {
				return true
			}
			if search != "" && !matchesSearch(ev, search) {
				return true
			}
			collected = append(collected, stamped{ev: ev, ts: ts})
			return len(collected) < limit
		})
		if len(collected) >= limit {
			break
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].ts.After(collected[j].ts)
	})
	events := make([]Event, len(collected))
	for i, c := range collected {
		events[i] = c.ev
	}
	return events
}

// Stats scans every file and tallies counts by event type.
func (r *Recorder) Stats() Stats {
	var st Stats
	var first, last time.Time

	for _, file := range r.logFiles() {
		scanEvents(file.path, func(ev Event) bool {
			switch ev.EventType {
			case EventSessionStart:
				st.TotalSessions++
			case EventChatTurn:
				st.TotalChatTurns++
			case EventProposalCreated:
				st.TotalProposals++
			case EventProposalDecision:
				if decision, ok := ev.Payload["decision"].(string); ok {
					switch decision {
					case "approved":
						st.ProposalsApproved++
					case "rejected":
						st.ProposalsRejected++
					}
				}
			case EventError:
				st.TotalErrors++
			}
			if ts, err := time.Parse(time.RFC3339, ev.Timestamp); err == nil {
				if first.IsZero() || ts.Before(first) {
					first = ts
				}
				if last.IsZero() || ts.After(last) {
					last = ts
				}
			}
			return true
		})
	}

	if !first.IsZero() {
		st.FirstEvent = first.Format(time.RFC3339)
	}
	if !last.IsZero() {
		st.LastEvent = last.Format(time.RFC3339)
	}
	return st
}

// Files lists the daily files on disk, newest first.
func (r *Recorder) Files() []LogFile {
	var out []LogFile
	for _, file := range r.logFiles() {
		out = append(out, LogFile{
			Name:      file.name,
			Date:      file.date.Format("2006-01-02"),
			SizeBytes: file.size,
		})
	}
	return out
}

// DeleteBefore removes whole daily files dated before the cutoff day and
// returns how many were deleted. Days are never split.
func (r *Recorder) DeleteBefore(cutoff time.Time) int {
	day := dayOf(cutoff)
	deleted := 0
	for _, file := range r.logFiles() {
		if !file.date.Before(day) {
			continue
		}
		if err := os.Remove(file.path); err != nil {
			r.logger.WithError(err).Warn("Failed to delete telemetry file")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		r.logger.WithField("files", deleted).Info("Deleted old telemetry files")
	}
	return deleted
}

type logFileInfo struct {
	name string
	path string
	date time.Time
	size int64
}

// logFiles returns the daily files sorted newest first. Files whose names
// don't parse as event files are ignored.
func (r *Recorder) logFiles() []logFileInfo {
	if r.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}

	var files []logFileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, eventFilePrefix) || !strings.HasSuffix(name, eventFileExt) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, eventFilePrefix), eventFileExt)
		date, err := time.Parse("2006-01-02", stamp)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, logFileInfo{
			name: name,
			path: filepath.Join(r.dir, name),
			date: date,
			size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].date.After(files[j].date)
	})
	return files
}

// scanEvents streams one file's events to fn; fn returning false stops the
// scan early.
func scanEvents(path string, fn func(Event) bool) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if !fn(ev) {
			return
		}
	}
}

func matchesSearch(ev Event, lowered string) bool {
	if strings.Contains(strings.ToLower(ev.EventType), lowered) {
		return true
	}
	if len(ev.Payload) == 0 {
		return false
	}
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), lowered)
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
