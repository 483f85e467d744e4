package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/relmenu/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "View the JSONL event journal",
	Long: `Reads and formats the event journal written when telemetry.path is set.

With --session, only events from that editing session are shown.
With --follow (-f), watches the file for new events (like tail -f).`,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("path", "", "journal file (default from telemetry.path)")
	telemetryCmd.Flags().String("session", "", "only show events from this session id")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("path")
	sessionID, _ := cmd.Flags().GetString("session")
	follow, _ := cmd.Flags().GetBool("follow")

	if path == "" {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		e.close()
		path = e.cfg.Telemetry.Path
	}
	if path == "" {
		return errors.New("telemetry: no journal configured; set telemetry.path or pass --path")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	p := &eventPrinter{w: cmd.OutOrStdout(), session: sessionID}

	// Print all existing events.
	reader := bufio.NewReader(f)
	if err := p.drain(reader); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}

	if !follow {
		return nil
	}
	return tailFollow(p, reader, path)
}

// tailFollow watches the file for new data using fsnotify and prints new events.
func tailFollow(p *eventPrinter, reader *bufio.Reader, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	for event := range watcher.Events {
		if event.Op&fsnotify.Write == 0 {
			continue
		}
		if err := p.drain(reader); err != nil {
			return fmt.Errorf("telemetry: read %s: %w", path, err)
		}
	}
	return nil
}

// eventPrinter formats journal lines, optionally filtered to one session.
type eventPrinter struct {
	w       io.Writer
	session string
	partial string
}

// drain prints every complete line available from r. A trailing line with no
// newline yet is held back until the rest of it arrives.
func (p *eventPrinter) drain(r *bufio.Reader) error {
	for {
		chunk, err := r.ReadString('\n')
		p.partial += chunk
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line := strings.TrimSpace(p.partial)
		p.partial = ""
		if line != "" {
			p.print(line)
		}
	}
}

// print decodes a JSONL line and prints a human-readable representation.
func (p *eventPrinter) print(line string) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(p.w, "??? %s\n", line)
		return
	}
	if p.session != "" && evt.Session != p.session {
		return
	}

	ts := evt.Timestamp.Local().Format(time.TimeOnly)
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", ts))
	parts = append(parts, evt.Kind)

	if evt.Session != "" {
		parts = append(parts, fmt.Sprintf("session=%.8s", evt.Session))
	}
	if evt.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", evt.Title))
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(p.w, strings.Join(parts, " "))
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
