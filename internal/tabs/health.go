// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/jeranaias/agentroom/internal/ui/styles"
)

// HealthInterval is how often the mocked vitals change.
const HealthInterval = 3 * time.Second

// Vitals is one mocked reading.
type Vitals struct {
	HeartRate   int     // 60-100 bpm
	Respiratory int     // 12-18 breaths/min
	SpO2        int     // 95-100 %
	Temperature float64 // 97.5-99.5 F, one decimal
	Move        float64 // activity ring fractions, 0-1
	Exercise    float64
	Stand       float64
}

// HeartRateClass buckets the heart rate: high above 80, low below 70.
func (v Vitals) HeartRateClass() string {
	switch {
	case v.HeartRate > 80:
		return "high"
	case v.HeartRate < 70:
		return "low"
	default:
		return "normal"
	}
}

// Sleep is the fixed sleep summary.
type Sleep struct {
	Duration string
	Quality  string
	Deep     string
	REM      string
}

// LastNight is the sleep summary the panel shows.
var LastNight = Sleep{Duration: "7h 23m", Quality: "Good", Deep: "1h 45m", REM: "2h 12m"}

// RandomVitals draws a reading from rng.
func RandomVitals(rng *rand.Rand) Vitals {
	return Vitals{
		HeartRate:   60 + rng.Intn(41),
		Respiratory: 12 + rng.Intn(7),
		SpO2:        95 + rng.Intn(6),
		Temperature: float64(975+rng.Intn(21)) / 10,
		Move:        rng.Float64(),
		Exercise:    rng.Float64(),
		Stand:       rng.Float64(),
	}
}

type healthTickMsg struct{}

// HealthPanel shows mocked vitals from a pretend watch.
type HealthPanel struct {
	theme     *styles.Theme
	rng       *rand.Rand
	vitals    Vitals
	connected bool
	bar       progress.Model
}

// NewHealthPanel creates the panel. rng must not be shared with another
// goroutine.
func NewHealthPanel(theme *styles.Theme, rng *rand.Rand) *HealthPanel {
	p := &HealthPanel{
		theme: theme,
		rng:   rng,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	p.vitals = RandomVitals(rng)
	return p
}

func (p *HealthPanel) ID() string    { return IDHealth }
func (p *HealthPanel) Title() string { return "Health Data" }
func (p *HealthPanel) Icon() string  { return "📱" }

// Vitals returns the current reading.
func (p *HealthPanel) Vitals() Vitals { return p.vitals }

// Connected reports the pretend watch connection.
func (p *HealthPanel) Connected() bool { return p.connected }

// ToggleConnection flips the pretend watch connection.
func (p *HealthPanel) ToggleConnection() bool {
	p.connected = !p.connected
	return p.connected
}

// ConnectionLabel describes the pretend watch connection.
func (p *HealthPanel) ConnectionLabel() string {
	if p.connected {
		return "Connected to Apple Watch"
	}
	return "Not connected to Apple Watch"
}

func (p *HealthPanel) Init() tea.Cmd { return healthTick() }

func healthTick() tea.Cmd {
	return tea.Tick(HealthInterval, func(time.Time) tea.Msg { return healthTickMsg{} })
}

func (p *HealthPanel) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(healthTickMsg); !ok {
		return nil
	}
	p.vitals = RandomVitals(p.rng)
	return healthTick()
}

func (p *HealthPanel) View(width, height int) string {
	t := p.theme
	v := p.vitals
	var b strings.Builder

	status := t.Error
	if p.connected {
		status = t.Success
	}
	b.WriteString(t.PanelTitle.Render("Health Data") + "  " + status.Render(p.ConnectionLabel()) + "\n\n")

	b.WriteString(t.PanelTitle.Render("Vital Signs") + "\n")
	hr := t.MetricValue
	switch v.HeartRateClass() {
	case "high":
		hr = t.Error
	case "low":
		hr = t.Warning
	}
	b.WriteString(metric(t, "Heart rate", hr.Render(fmt.Sprintf("%d bpm", v.HeartRate))))
	b.WriteString(metric(t, "Respiratory rate", t.MetricValue.Render(fmt.Sprintf("%d /min", v.Respiratory))))
	b.WriteString(metric(t, "Blood oxygen", t.MetricValue.Render(fmt.Sprintf("%d%%", v.SpO2))))
	b.WriteString(metric(t, "Temperature", t.MetricValue.Render(fmt.Sprintf("%.1f°F", v.Temperature))))

	b.WriteString("\n" + t.PanelTitle.Render("Sleep") + "\n")
	b.WriteString(metric(t, "Duration", t.MetricValue.Render(LastNight.Duration)))
	b.WriteString(metric(t, "Quality", t.MetricValue.Render(LastNight.Quality)))
	b.WriteString(metric(t, "Deep sleep", t.MetricValue.Render(LastNight.Deep)))
	b.WriteString(metric(t, "REM sleep", t.MetricValue.Render(LastNight.REM)))

	b.WriteString("\n" + t.PanelTitle.Render("Activity Rings") + "\n")
	p.bar.Width = max(10, min(40, width-24))
	for _, ring := range []struct {
		name string
		frac float64
	}{{"Move", v.Move}, {"Exercise", v.Exercise}, {"Stand", v.Stand}} {
		b.WriteString(fmt.Sprintf("%s %s %3.0f%%\n", t.MetricLabel.Width(10).Render(ring.name), p.bar.ViewAs(ring.frac), ring.frac*100))
	}
	return fitLines(strings.TrimRight(b.String(), "\n"), width, height)
}

func metric(t *styles.Theme, label, value string) string {
	return t.MetricLabel.Width(18).Render(label) + value + "\n"
}
