// List the storage files and topics of a ROS2 bag.
package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/cli"
	"github.com/FuminoriSugawara/rosbag2-util/msgs"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B4BEFE"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CBA6F7"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// render lays out rows in columns padded to the widest cell.
func render(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	line := func(row []string, style lipgloss.Style) string {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ")
	}
	var b strings.Builder
	b.WriteString(line(header, headerStyle) + "\n")
	for _, row := range rows {
		b.WriteString(line(row, lipgloss.NewStyle()) + "\n")
	}
	return b.String()
}

func describe(info bag.Info) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(info.Path) + "\n")
	compression := "none"
	if info.CompressionFormat != "" {
		compression = fmt.Sprintf("%s (%s)", info.CompressionFormat, strings.ToLower(string(info.CompressionMode)))
	}
	fmt.Fprintf(&b, "storage:     %s, version %d, compression %s\n", info.StorageIdentifier, info.Version, compression)
	fmt.Fprintf(&b, "start:       %s\n", info.Start.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&b, "duration:    %s\n", info.Duration)
	fmt.Fprintf(&b, "messages:    %s\n\n", humanize.Comma(info.MessageCount))

	files := make([][]string, len(info.Files))
	for i, f := range info.Files {
		files[i] = []string{filepath.Base(f.Path), humanize.Bytes(uint64(f.Size))}
	}
	b.WriteString(render([]string{"FILE", "SIZE"}, files) + "\n")

	known := make(map[string]bool)
	for _, t := range msgs.Known() {
		known[t] = true
	}
	topics := make([][]string, len(info.Connections))
	for i, c := range info.Connections {
		decodable := mutedStyle.Render("no")
		if known[c.MsgType] {
			decodable = "yes"
		}
		topics[i] = []string{c.Topic, c.MsgType, humanize.Comma(c.MessageCount), decodable}
	}
	b.WriteString(render([]string{"TOPIC", "TYPE", "MESSAGES", "DECODED"}, topics))
	return b.String()
}

func newCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "bagtopics BAGPATH",
		Short: "List the topics of a ROS2 bag",
		Args:  cobra.ExactArgs(1),
	}
	return cli.NewCommand(c, func(env *cli.Env, cmd *cobra.Command, args []string) error {
		r, err := bag.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		env.Printf("%s", describe(r.Info()))
		return nil
	})
}

func main() {
	cli.Execute(newCommand())
}
