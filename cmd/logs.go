package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/cli"
	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// logLine is one tailed line tagged with the component that wrote it.
type logLine struct {
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print or follow the daemon log files",
		Long: `Each daemon subsystem writes JSON lines to its own dated file under the
seriem state directory. This command prints them, optionally following new
output as it arrives.

Examples:
  # Print everything logged today
  seriem logs

  # Follow new output
  seriem logs -f

  # Only the HTTP server, last 50 lines
  seriem logs --component server --tail 50

  # Raw JSON lines for piping into jq
  seriem logs --json
`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().String("component", "", "Only show logs from one component (daemon, server, proposals, ...)")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of each file (default: all)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	follow, _ := cmd.Flags().GetBool("follow")
	component, _ := cmd.Flags().GetString("component")
	tailLines, _ := cmd.Flags().GetInt("tail")

	logsDir := paths.LogsDir()
	if logsDir == "" {
		return fmt.Errorf("cannot determine the log directory")
	}

	pattern := "*.log"
	if component != "" {
		pattern = component + "-*.log"
	}

	lineChan := make(chan logLine, 100)
	var wg sync.WaitGroup

	tailed := make(map[string]bool)
	var tailedMu sync.Mutex

	startTailing := func(path string) {
		tailedMu.Lock()
		if tailed[path] {
			tailedMu.Unlock()
			return
		}
		tailed[path] = true
		tailedMu.Unlock()

		wg.Add(1)
		go tailLogFile(path, lineChan, &wg, follow, tailLines)
	}

	discover := func() int {
		files, err := filepath.Glob(filepath.Join(logsDir, pattern))
		if err != nil {
			return 0
		}
		sort.Strings(files)
		for _, file := range files {
			startTailing(file)
		}
		return len(files)
	}

	if discover() == 0 && !follow {
		fmt.Printf("No log files in %s\n", logsDir)
		return nil
	}

	// Daily rotation creates new date-suffixed files while following; keep
	// picking them up.
	if follow {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				discover()
			}
		}()
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for line := range lineChan {
		if opts.JSONOutput {
			fmt.Println(line.Line)
		} else {
			printLogText(line)
		}
	}

	return nil
}

// tailLogFile streams one file onto the channel. With a line budget it prints
// only the trailing lines first, then keeps following from the end.
func tailLogFile(path string, lineChan chan<- logLine, wg *sync.WaitGroup, follow bool, tailLines int) {
	defer wg.Done()

	component := componentFromFile(path)
	location := &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}

	if tailLines >= 0 {
		lines, err := lastLines(path, tailLines)
		if err != nil {
			return
		}
		for _, line := range lines {
			lineChan <- logLine{Component: component, Line: line}
		}
		if !follow {
			return
		}
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:   follow,
		ReOpen:   follow,
		Location: location,
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return
	}

	for line := range t.Lines {
		if line.Err != nil {
			continue
		}
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		lineChan <- logLine{Component: component, Line: text}
	}
}

// componentFromFile strips the date suffix from a <component>-<date>.log name.
func componentFromFile(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".log")
	if len(name) > 11 && name[len(name)-11] == '-' {
		if _, err := time.Parse("2006-01-02", name[len(name)-10:]); err == nil {
			return name[:len(name)-11]
		}
	}
	return name
}

// lastLines returns up to n trailing lines of the file.
func lastLines(path string, n int) ([]string, error) {
	if n == 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(lines) == n {
			copy(lines, lines[1:])
			lines = lines[:n-1]
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// printLogText pretty-prints a JSON log line for human consumption.
func printLogText(entry logLine) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(entry.Line), &logMap); err != nil {
		// Print as a raw line if not JSON
		fmt.Printf("[%s] %s\n",
			theme.DefaultTheme.Accent.Render(entry.Component),
			entry.Line,
		)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)
	component, _ := logMap["component"].(string)
	if component == "" {
		component = entry.Component
	}

	parsedTime, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		parsedTime, _ = time.Parse(time.RFC3339, ts)
	}
	timeStr := parsedTime.Format("15:04:05")

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = theme.DefaultTheme.Error
	case "warning":
		levelStyle = theme.DefaultTheme.Warning
	case "info":
		levelStyle = theme.DefaultTheme.Info
	default:
		levelStyle = theme.DefaultTheme.Muted
	}
	levelStr := levelStyle.Render(strings.ToUpper(level))

	otherFields := []string{}
	sortedKeys := []string{}
	for k := range logMap {
		if k != "time" && k != "level" && k != "msg" && k != "component" {
			sortedKeys = append(sortedKeys, k)
		}
	}
	sort.Strings(sortedKeys)

	for _, k := range sortedKeys {
		otherFields = append(otherFields, fmt.Sprintf("%s=%v", theme.DefaultTheme.Muted.Render(k), logMap[k]))
	}

	fieldsStr := strings.Join(otherFields, " ")

	fmt.Printf("%s [%s] %s %s %s\n",
		timeStr,
		theme.DefaultTheme.Accent.Render(component),
		levelStr,
		msg,
		fieldsStr,
	)
}
