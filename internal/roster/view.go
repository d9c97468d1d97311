// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package roster

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/ui/styles"
	"github.com/jeranaias/agentroom/internal/util"
)

// Placeholder is shown when the roster is empty.
const Placeholder = "No agents created yet. Start a conversation to create your team!"

// GuardianScript is the guardian panel's start-up sequence.
var GuardianScript = []string{
	"Initializing Guardian NLP system...",
	"Loading neural network models...",
	"Establishing database connections...",
	"Guardian system ready for text analysis",
}

// cardScript returns the cosmetic start-up sequence for one agent.
func cardScript(a model.Agent) []string {
	return []string{
		"Initializing agent systems...",
		"Loading expertise: " + a.Expertise,
		"Ready for conversation",
	}
}

// Options configures a View.
type Options struct {
	// PersonalityPreview is the number of characters of personality shown
	// on a card before "...". Zero means 100.
	PersonalityPreview int

	// ThoughtCapacity bounds each card's thought log. Zero means 8.
	ThoughtCapacity int

	// CardWidth is the rendered card width in cells. Zero means 34.
	CardWidth int
}

// Thought is one timestamped cosmetic or streamed line.
type Thought struct {
	At   time.Time
	Text string
}

// Card is a snapshot of one rendered agent.
type Card struct {
	Agent    model.Agent
	Icon     string
	Preview  string
	Thoughts []Thought
}

type card struct {
	agent    model.Agent
	icon     string
	preview  string
	thoughts *model.Ring[Thought]
	script   []string
}

// View holds the rendered roster. It is safe for concurrent use.
type View struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	agents   []model.Agent
	cards    []*card
	guardian *model.Ring[Thought]
	gScript  []string
}

// NewView creates an empty roster.
func NewView(opts Options) *View {
	if opts.PersonalityPreview <= 0 {
		opts.PersonalityPreview = 100
	}
	if opts.ThoughtCapacity <= 0 {
		opts.ThoughtCapacity = 8
	}
	if opts.CardWidth <= 0 {
		opts.CardWidth = 34
	}
	v := &View{
		opts:     opts,
		now:      time.Now,
		guardian: model.NewRing[Thought](opts.ThoughtCapacity),
		gScript:  slices.Clone(GuardianScript),
	}
	v.advanceGuardian()
	return v
}

// Render replaces the card set with agents, in order. Rendering the list
// already shown is a no-op, so cosmetic progress is kept.
func (v *View) Render(agents []model.Agent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if slices.Equal(v.agents, agents) && len(v.cards) == len(agents) {
		return
	}
	v.agents = slices.Clone(agents)
	v.cards = make([]*card, len(agents))
	for i, a := range agents {
		a = sanitizeAgent(a)
		c := &card{
			agent:    a,
			icon:     IconFor(a.Role),
			preview:  util.TruncateRunes(a.Personality, v.opts.PersonalityPreview),
			thoughts: model.NewRing[Thought](v.opts.ThoughtCapacity),
			script:   cardScript(a),
		}
		c.advance(v.now())
		v.cards[i] = c
	}
}

// Empty reports whether no agents are shown.
func (v *View) Empty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.cards) == 0
}

// Cards returns a snapshot of the cards in display order.
func (v *View) Cards() []Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Card, len(v.cards))
	for i, c := range v.cards {
		out[i] = Card{Agent: c.agent, Icon: c.icon, Preview: c.preview, Thoughts: c.thoughts.Items()}
	}
	return out
}

// Guardian returns the guardian panel's lines.
func (v *View) Guardian() []Thought {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.guardian.Items()
}

// Tick advances every pending cosmetic sequence by one line. It reports
// whether anything changed, so the caller can stop its timer once all
// sequences have finished.
func (v *View) Tick() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	changed := v.advanceGuardian()
	for _, c := range v.cards {
		if c.advance(now) {
			changed = true
		}
	}
	return changed
}

// Pending reports whether any cosmetic sequence has lines left.
func (v *View) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.gScript) > 0 {
		return true
	}
	for _, c := range v.cards {
		if len(c.script) > 0 {
			return true
		}
	}
	return false
}

// SECURITY: Agent fields come from the backend and are drawn on cards.
func sanitizeAgent(a model.Agent) model.Agent {
	a.Role = util.SanitizeText(a.Role)
	a.Expertise = util.SanitizeText(a.Expertise)
	a.Personality = util.SanitizeText(a.Personality)
	return a
}

// AddThought appends a streamed thought to the card of agentID. It reports
// false when no card has that ID.
func (v *View) AddThought(agentID, text string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.cards {
		if c.agent.ID == agentID {
			c.thoughts.Push(Thought{At: v.now(), Text: util.SanitizeText(text)})
			return true
		}
	}
	return false
}

func (v *View) advanceGuardian() bool {
	if len(v.gScript) == 0 {
		return false
	}
	v.guardian.Push(Thought{At: v.now(), Text: v.gScript[0]})
	v.gScript = v.gScript[1:]
	return true
}

func (c *card) advance(now time.Time) bool {
	if len(c.script) == 0 {
		return false
	}
	c.thoughts.Push(Thought{At: now, Text: c.script[0]})
	c.script = c.script[1:]
	return true
}

// =============================================================================
// RENDERING
// =============================================================================

// String renders the roster as a grid of cards that fits width cells.
func (v *View) String(theme *styles.Theme, width int) string {
	cards := v.Cards()
	if len(cards) == 0 {
		return theme.Placeholder.Render(Placeholder)
	}

	cardW := v.opts.CardWidth
	cols := max(1, width/(cardW+1))

	var rows []string
	for start := 0; start < len(cards); start += cols {
		end := min(start+cols, len(cards))
		row := make([]string, 0, end-start)
		for _, c := range cards[start:end] {
			row = append(row, renderCard(theme, c, cardW))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCard draws one card. The inner width excludes border and padding.
func renderCard(theme *styles.Theme, c Card, width int) string {
	inner := max(8, width-4)

	var b strings.Builder
	b.WriteString(theme.CardTitle.Render(util.TruncateWidth(c.Icon+" "+c.Agent.Role, inner)))
	b.WriteString("\n")
	b.WriteString(theme.CardSubtitle.Render(util.TruncateWidth(c.Agent.Expertise, inner)))
	if c.Preview != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(c.Preview))
	}
	for _, t := range c.Thoughts {
		b.WriteString("\n")
		line := fmt.Sprintf("%s %s", t.At.Format("15:04:05"), t.Text)
		b.WriteString(theme.CardThought.Render(util.TruncateWidth(line, inner)))
	}
	return theme.Card.Width(width - 2).Render(b.String())
}
