// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jeranaias/agentroom/internal/ui/styles"
)

// TrainingInterval paces the simulated training run.
const TrainingInterval = time.Second

// Component is one mocked cognitive subsystem.
type Component struct {
	Icon   string
	Name   string
	Status string
}

// Components are listed in display order.
var Components = []Component{
	{"💭", "Thinking Patterns", "Modeling..."},
	{"📚", "Learning Mechanisms", "Analyzing..."},
	{"🔧", "Problem-Solving", "Processing..."},
	{"⚙️", "Operational Systems", "Learning..."},
	{"🔄", "Adaptation Mechanisms", "Adapting..."},
	{"🎯", "Belief Systems", "Mapping..."},
}

// ThinkingStyle is one fixed metric bar.
type ThinkingStyle struct {
	Label   string
	Percent int
}

// ThinkingStyles are the fixed thinking metrics.
var ThinkingStyles = []ThinkingStyle{
	{"Analytical", 65},
	{"Linear", 40},
	{"Creative", 75},
}

// LearningPatterns are the fixed learning-pattern levels.
var LearningPatterns = [][2]string{
	{"Visual", "High"},
	{"Auditory", "Medium"},
}

type trainingTickMsg struct{}

// NeuralPanel shows mocked cognitive components and a training run.
type NeuralPanel struct {
	theme    *styles.Theme
	rng      *rand.Rand
	progress float64 // 0-100
	training bool
	bar      progress.Model
}

// NewNeuralPanel creates the panel.
func NewNeuralPanel(theme *styles.Theme, rng *rand.Rand) *NeuralPanel {
	return &NeuralPanel{
		theme: theme,
		rng:   rng,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (p *NeuralPanel) ID() string    { return IDNeural }
func (p *NeuralPanel) Title() string { return "Neural Architecture" }
func (p *NeuralPanel) Icon() string  { return "🧠" }

func (p *NeuralPanel) Init() tea.Cmd { return nil }

// Training reports whether a run is in progress.
func (p *NeuralPanel) Training() bool { return p.training }

// Progress returns the training progress in percent.
func (p *NeuralPanel) Progress() float64 { return p.progress }

// StartTraining begins a run from zero. It is a no-op while one is running.
func (p *NeuralPanel) StartTraining() tea.Cmd {
	if p.training {
		return nil
	}
	p.training = true
	p.progress = 0
	return trainingTick()
}

func trainingTick() tea.Cmd {
	return tea.Tick(TrainingInterval, func(time.Time) tea.Msg { return trainingTickMsg{} })
}

func (p *NeuralPanel) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(trainingTickMsg); !ok || !p.training {
		return nil
	}
	p.progress = min(100, p.progress+p.rng.Float64()*5)
	if p.progress >= 100 {
		p.training = false
		return nil
	}
	return trainingTick()
}

// StatusLabel is the training line shown under the bar.
func (p *NeuralPanel) StatusLabel() string {
	switch {
	case p.training:
		return fmt.Sprintf("%d%% Complete", int(p.progress))
	case p.progress >= 100:
		return "Training Complete"
	default:
		return "Ready to train (/train)"
	}
}

func (p *NeuralPanel) View(width, height int) string {
	t := p.theme
	var b strings.Builder

	b.WriteString(t.PanelTitle.Render("Cognitive Components") + "\n")
	for _, c := range Components {
		b.WriteString(fmt.Sprintf("%s %s %s\n", c.Icon, t.MetricLabel.Width(24).Render(c.Name), t.Muted.Render(c.Status)))
	}

	p.bar.Width = max(10, min(40, width-24))
	b.WriteString("\n" + t.PanelTitle.Render("Thinking Style") + "\n")
	for _, s := range ThinkingStyles {
		b.WriteString(fmt.Sprintf("%s %s %3d%%\n", t.MetricLabel.Width(12).Render(s.Label), p.bar.ViewAs(float64(s.Percent)/100), s.Percent))
	}

	b.WriteString("\n" + t.PanelTitle.Render("Learning Patterns") + "\n")
	for _, lp := range LearningPatterns {
		b.WriteString(metric(t, lp[0], t.MetricValue.Render(lp[1])))
	}

	b.WriteString("\n" + t.PanelTitle.Render("Model Training") + "\n")
	b.WriteString(p.bar.ViewAs(p.progress/100) + "\n")
	b.WriteString(t.MetricValue.Render(p.StatusLabel()))
	return fitLines(b.String(), width, height)
}
