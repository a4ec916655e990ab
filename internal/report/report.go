// Package report renders a static, non-interactive compile summary to the
// terminal once a Score has been scheduled. Styling is adapted from the
// teacher's display/tui.go palette (lipgloss over a bubbletea live view);
// here there is nothing to animate — spec.md's non-goals exclude real-time
// playback — so the styles drive one printed report instead of a loop.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fuuzen/yam-go/internal/midi"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))
	channelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
)

// Summary is the data a report renders; main.go builds it with FromResult
// from the scheduler's own bookkeeping.
type Summary struct {
	Input          string
	Output         string
	Tempo          int32
	TimeSigTop     int32
	TimeSigBottom  int32
	Instruments    map[int32]int32 // channel -> program
	TracksAssigned map[int32]int  // channel -> number of SetChannelTrack calls
}

// Render formats s as a short colorized report, following the section-header
// + label/value-row shape of the teacher's display package.
func Render(s Summary) string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render("yam — compiled"))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("input: "), valueStyle.Render(s.Input))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("output:"), valueStyle.Render(s.Output))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("tempo: "), valueStyle.Render(fmt.Sprintf("%d bpm", s.Tempo)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("time:  "), valueStyle.Render(fmt.Sprintf("%d/%d", s.TimeSigTop, s.TimeSigBottom)))

	var channels []int32
	for ch := range s.TracksAssigned {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	for _, ch := range channels {
		prog := s.Instruments[ch]
		fmt.Fprintf(&b, "%s %s\n", channelStyle.Render(fmt.Sprintf("channel %2d:", ch)),
			labelStyle.Render(fmt.Sprintf("program %d, %d track assignment(s)", prog, s.TracksAssigned[ch])))
	}
	return b.String()
}

// FromResult builds a Summary straight from the scheduler's own bookkeeping,
// so the report can never drift from what was actually scheduled into the
// SMF (no second evaluation pass over the AST, no risk of re-running a
// side-effecting expression).
func FromResult(input, output string, r *midi.Result) Summary {
	s := Summary{
		Input:          input,
		Output:         output,
		Tempo:          r.Tempo,
		TimeSigTop:     r.TimeSigTop,
		TimeSigBottom:  r.TimeSigBottom,
		Instruments:    make(map[int32]int32),
		TracksAssigned: make(map[int32]int),
	}
	for ch, prog := range r.Instruments {
		s.Instruments[int32(ch)] = prog
	}
	for ch, n := range r.TrackAssignments {
		s.TracksAssigned[int32(ch)] = n
	}
	return s
}
