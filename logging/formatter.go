package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// TextFormatter renders entries as
// "2006-01-02 15:04:05 [LEVEL] [component] message k=v". The component tag
// takes the theme's accent style so interleaved daemon output stays
// scannable.
type TextFormatter struct {
	Config FormatConfig
}

// Format implements logrus.Formatter.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if !f.Config.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}

	fmt.Fprintf(&b, "[%s]", levelTag(entry.Level))

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		fmt.Fprintf(&b, " [%s]", theme.DefaultTheme.Accent.Render(fmt.Sprintf("%v", component)))
	}

	if entry.HasCaller() {
		fmt.Fprintf(&b, " [%s:%d %s]",
			filepath.Base(entry.Caller.File),
			entry.Caller.Line,
			filepath.Base(entry.Caller.Function))
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	for _, key := range sortedFieldKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// levelTag shortens logrus's "warning" so every tag fits five columns.
func levelTag(level logrus.Level) string {
	s := level.String()
	if s == "warning" {
		s = "warn"
	}
	return strings.ToUpper(s)
}

// sortedFieldKeys returns the entry's extra fields in stable order. The
// component field is excluded; it renders as its own tag.
func sortedFieldKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		if key != "component" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
