package ui

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/crazy3lf/colorconv"

	"github.com/cybre/aurora-visualizer/internal/utils"
)

// MonitorFrame is the per-tick summary shown by the headless monitor.
type MonitorFrame struct {
	Bass         float64
	Mid          float64
	High         float64
	Overall      float64
	Beat         bool
	BeatStrength float64
	BeatPulse    float64
	Bloom        float64
	Zoom         float64
	Scene        string
	Elapsed      float64
	Points       int
	Links        int
	Receivers    bool
}

// Monitor renders band levels and mapped parameters in the terminal, for
// headless runs and for keeping an eye on a secondary window's feed.
type Monitor struct {
	program   *tea.Program
	mu        sync.Mutex
	lastSend  time.Time
	throttle  time.Duration
	closeOnce sync.Once
}

type frameMsg struct {
	frame      MonitorFrame
	receivedAt time.Time
}

type monitorModel struct {
	frame       MonitorFrame
	lastUpdated time.Time
	ready       bool
	width       int
	height      int
	onExit      func()
	exitOnce    sync.Once
}

var (
	monContainerStyle    = lipgloss.NewStyle().Padding(0, 2)
	monTimestampStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	monMetricLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	monMetricValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	monBeatActiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Bold(true)
	monBeatInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	monWaitingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	monHintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

const (
	monBarWidth   = 32
	renderLatency = 45 * time.Millisecond
)

// NewMonitor starts the TUI in the background. onExit runs once when the user
// quits the monitor.
func NewMonitor(onExit func()) *Monitor {
	model := &monitorModel{onExit: onExit}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithoutSignalHandler())

	m := &Monitor{
		program:  program,
		throttle: renderLatency,
	}

	go program.Run()

	return m
}

// Update feeds the next frame, rate-limited so terminal redraws don't eat
// into the render budget.
func (m *Monitor) Update(frame MonitorFrame) {
	m.mu.Lock()
	if time.Since(m.lastSend) < m.throttle {
		m.mu.Unlock()
		return
	}
	m.lastSend = time.Now()
	m.mu.Unlock()

	m.program.Send(frameMsg{
		frame:      frame,
		receivedAt: time.Now(),
	})
}

func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		m.program.Quit()
	})
}

func (m *monitorModel) Init() tea.Cmd {
	return nil
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case frameMsg:
		m.frame = msg.frame
		m.lastUpdated = msg.receivedAt
		m.ready = true
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.invokeExit()
			return m, tea.Quit
		case msg.String() == "q", msg.String() == "esc":
			m.invokeExit()
			return m, tea.Quit
		}
	case tea.QuitMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *monitorModel) View() string {
	body := ""
	if !m.ready {
		header := titleStyle.Render("Aurora Visualizer")
		waiting := monWaitingStyle.Render("Waiting for audio frames…")
		body = lipgloss.JoinVertical(lipgloss.Left, header, "", waiting)
	} else {
		body = renderMonitorView(m.frame, m.lastUpdated)
	}
	return monContainerStyle.Render(body)
}

func renderMonitorView(frame MonitorFrame, updatedAt time.Time) string {
	header := renderHeader(frame, updatedAt)
	metrics := renderMetrics(frame)
	bars := renderBars(frame)
	controls := monHintStyle.Render("Press q / esc / ctrl+c to stop")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		metrics,
		"",
		bars,
		"",
		controls,
	)
}

func renderHeader(frame MonitorFrame, updatedAt time.Time) string {
	// Tint the title with the overall energy: blue when quiet, warm when loud.
	hue := 220 - utils.Clamp(frame.Overall, 0, 1)*190
	color := lipgloss.Color(hexColorFromHSV(hue, 0.85, 0.5+0.5*utils.Clamp(frame.Overall, 0, 1)))

	title := titleStyle.
		Foreground(color).
		Render("Aurora Visualizer")
	timestamp := monTimestampStyle.Render(updatedAt.Format("15:04:05.000"))

	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", timestamp)
}

func renderMetrics(frame MonitorFrame) string {
	sceneName := frame.Scene
	if sceneName == "" {
		sceneName = "none"
	}
	scene := renderMetric("Scene", sceneName)
	elapsed := renderMetric("Elapsed", fmt.Sprintf("%7.1fs", frame.Elapsed))
	geometry := renderMetric("Geometry", fmt.Sprintf("%d pts / %d links", frame.Points, frame.Links))

	beat := renderBeatMetric(frame)
	pulse := renderMetric("Beat Pulse", fmt.Sprintf("%4.2f", utils.Clamp(frame.BeatPulse, 0.0, 1.0)))
	link := renderMetric("Receiver", receiverLabel(frame.Receivers))

	top := lipgloss.JoinHorizontal(lipgloss.Left, scene, "   ", elapsed, "   ", geometry)
	bottom := lipgloss.JoinHorizontal(lipgloss.Left, beat, "   ", pulse, "   ", link)

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func receiverLabel(connected bool) string {
	if connected {
		return "connected"
	}
	return "none"
}

func renderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		monMetricLabelStyle.Render(label+":"),
		" ",
		monMetricValueStyle.Render(value),
	)
}

func renderBeatMetric(frame MonitorFrame) string {
	marker := monBeatInactiveStyle.Render("○")
	if frame.Beat {
		marker = monBeatActiveStyle.Render("●")
	}
	strength := fmt.Sprintf("%4.2f", utils.Clamp(frame.BeatStrength, 0.0, 1.0))

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		monMetricLabelStyle.Render("Beat:"),
		" ",
		marker,
		" ",
		monMetricValueStyle.Render(strength),
	)
}

func renderBars(frame MonitorFrame) string {
	lines := []string{
		renderBar("Overall", frame.Overall, monThemes["Overall"]),
		renderBar("Beat Pulse", frame.BeatPulse, monThemes["Beat Pulse"]),
		renderBar("Bass", frame.Bass, monThemes["Bass"]),
		renderBar("Mid", frame.Mid, monThemes["Mid"]),
		renderBar("High", frame.High, monThemes["High"]),
		renderBar("Bloom", frame.Bloom, monThemes["Bloom"]),
	}
	return strings.Join(lines, "\n")
}

func renderBar(label string, value float64, theme barTheme) string {
	theme = normalizeBarTheme(theme)

	clamped := utils.Clamp(value, 0.0, 1.0)
	filled := int(math.Round(clamped * monBarWidth))
	if clamped > 0 && filled == 0 {
		filled = 1
	}
	if filled > monBarWidth {
		filled = monBarWidth
	}

	builder := strings.Builder{}
	builder.Grow(128)
	builder.WriteString(theme.LabelStyle.Render(fmt.Sprintf("%-14s", label)))
	builder.WriteString(" [")

	if filled > 0 {
		steps := filled - 1
		if steps <= 0 {
			steps = 1
		}
		for i := 0; i < filled; i++ {
			progress := float64(i) / float64(steps)
			hue := theme.HueStart + (theme.HueEnd-theme.HueStart)*progress
			value := utils.Clamp(theme.ValueBase+theme.ValueSpan*progress, 0.0, 1.0)
			color := lipgloss.Color(hexColorFromHSV(hue, theme.Saturation, value))
			builder.WriteString(lipgloss.NewStyle().
				Foreground(color).
				Render(theme.FilledChar))
		}
	}

	empty := monBarWidth - filled
	if empty > 0 {
		emptyBlock := theme.EmptyStyle.Render(theme.EmptyChar)
		for i := 0; i < empty; i++ {
			builder.WriteString(emptyBlock)
		}
	}

	builder.WriteString("] ")
	builder.WriteString(theme.ValueStyle.Render(fmt.Sprintf("%3.0f%%", clamped*100)))

	return builder.String()
}

type barTheme struct {
	LabelStyle lipgloss.Style
	ValueStyle lipgloss.Style
	EmptyStyle lipgloss.Style

	HueStart   float64
	HueEnd     float64
	Saturation float64
	ValueBase  float64
	ValueSpan  float64

	FilledChar string
	EmptyChar  string
}

var defaultBarTheme = barTheme{
	LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	HueStart:   210,
	HueEnd:     210,
	Saturation: 0.8,
	ValueBase:  0.35,
	ValueSpan:  0.45,
	FilledChar: "█",
	EmptyChar:  "░",
}

var monThemes = map[string]barTheme{
	"Overall": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		HueStart:   190,
		HueEnd:     140,
		Saturation: 0.85,
		ValueBase:  0.35,
		ValueSpan:  0.55,
		FilledChar: "█",
		EmptyChar:  "░",
	},
	"Beat Pulse": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   330,
		HueEnd:     360,
		Saturation: 0.9,
		ValueBase:  0.4,
		ValueSpan:  0.55,
	},
	"Bass": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   25,
		HueEnd:     45,
		Saturation: 0.92,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
	"Mid": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   55,
		HueEnd:     75,
		Saturation: 0.9,
		ValueBase:  0.35,
		ValueSpan:  0.55,
	},
	"High": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("123")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   210,
		HueEnd:     240,
		Saturation: 0.85,
		ValueBase:  0.35,
		ValueSpan:  0.5,
	},
	"Bloom": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("177")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   285,
		HueEnd:     315,
		Saturation: 0.95,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
}

func normalizeBarTheme(theme barTheme) barTheme {
	if theme.FilledChar == "" {
		theme.FilledChar = defaultBarTheme.FilledChar
	}
	if theme.EmptyChar == "" {
		theme.EmptyChar = defaultBarTheme.EmptyChar
	}
	if theme.Saturation <= 0 {
		theme.Saturation = defaultBarTheme.Saturation
	}
	if theme.ValueSpan <= 0 {
		theme.ValueSpan = defaultBarTheme.ValueSpan
	}
	if theme.ValueBase <= 0 {
		theme.ValueBase = defaultBarTheme.ValueBase
	}
	return theme
}

func hexColorFromHSV(h, s, v float64) string {
	s = utils.Clamp(s, 0.0, 1.0)
	v = utils.Clamp(v, 0.0, 1.0)
	r, g, b, err := colorconv.HSVToRGB(h, s, v)
	if err != nil {
		return "#FFFFFF"
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func (m *monitorModel) invokeExit() {
	m.exitOnce.Do(func() {
		if m.onExit != nil {
			m.onExit()
		}
	})
}
