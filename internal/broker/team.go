// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"fmt"
	"strings"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
)

// =============================================================================
// SPECIFICATION PARSING
// =============================================================================

// AgentSpec is one requested team member.
type AgentSpec struct {
	Role      string
	Expertise string
}

// DefaultTeamSize is used when an agent request names no count.
const DefaultTeamSize = 2

// roleRule adds Spec when every AllOf word, and one AnyOf word if any are
// listed, appears in the agent request.
type roleRule struct {
	rule intent.Rule
	spec AgentSpec
}

// roleRules are checked in order; the team keeps the first matches up to
// the requested size.
var roleRules = []roleRule{
	{intent.Rule{AnyOf: []string{"workout", "fitness"}}, AgentSpec{"Workout Specialist", "Fitness training and exercise program design"}},
	{intent.Rule{AnyOf: []string{"nutrition", "eating", "drinking"}}, AgentSpec{"Nutrition Specialist", "Nutrition planning and dietary optimization"}},
	{intent.Rule{AnyOf: []string{"align", "coordinate", "coordination"}}, AgentSpec{"Fitness Coordinator", "Integration of workouts and nutrition for optimal performance"}},
	{intent.Rule{AllOf: []string{"product", "manager"}}, AgentSpec{"Product Manager", "Product strategy and project management"}},
	{intent.Rule{AnyOf: []string{"developer", "technical"}}, AgentSpec{"Developer", "Technical implementation and coding"}},
	{intent.Rule{AnyOf: []string{"designer", "design"}}, AgentSpec{"Designer", "User interface and user experience design"}},
	{intent.Rule{AnyOf: []string{"marketing"}}, AgentSpec{"Marketing Manager", "Marketing strategy and campaign management"}},
	{intent.Rule{AllOf: []string{"data", "analyst"}}, AgentSpec{"Data Analyst", "Data analysis and insights"}},
}

// teamSize reads "N employees" or "N agents" for N in 3-5.
func teamSize(normalized string) int {
	for _, n := range []int{3, 4, 5} {
		if strings.Contains(normalized, fmt.Sprintf("%d employees", n)) ||
			strings.Contains(normalized, fmt.Sprintf("%d agents", n)) {
			return n
		}
	}
	return DefaultTeamSize
}

// ParseSpecification turns free text into a team. Known role keywords win;
// otherwise the team is made of generic members.
func ParseSpecification(spec string) []AgentSpec {
	n := intent.Normalize(spec)
	size := teamSize(n)

	var team []AgentSpec
	for _, r := range roleRules {
		if r.rule.Matches(n) {
			team = append(team, r.spec)
		}
	}
	if len(team) > 0 {
		return team[:min(len(team), size)]
	}

	team = make([]AgentSpec, size)
	for i := range team {
		team[i] = AgentSpec{Role: fmt.Sprintf("Team Member %d", i+1), Expertise: "General expertise"}
	}
	return team
}

// =============================================================================
// PERSONALITIES
// =============================================================================

type personality struct {
	role     string
	template string // %s is the expertise
}

var personalities = []personality{
	{"product manager", "A seasoned Product Manager with expertise in %s. Known for strategic thinking, excellent communication skills, and the ability to bridge technical and business requirements. A collaborative leader focused on user needs and market opportunities."},
	{"developer", "A skilled Developer specializing in %s. A technical problem-solver with attention to detail and a passion for clean, efficient code. Enjoys explaining complex technical concepts in accessible terms."},
	{"designer", "A creative Designer with expertise in %s. User-centered, with strong visual and interaction design skills. Advocates for user experience and design consistency."},
	{"marketing manager", "A strategic Marketing Manager with expertise in %s. A data-driven decision maker who pairs analytical skills with creative thinking and understands both customer needs and business objectives."},
	{"data analyst", "A detail-oriented Data Analyst specializing in %s. Translates complex data into actionable insights and helps the team make data-informed decisions."},
	{"project manager", "An experienced Project Manager with expertise in %s. Organized and methodical, with strong leadership skills. Delivers results while keeping the team and stakeholders aligned."},
}

// Personality describes an agent by role. Unknown roles get a generic
// description.
func Personality(role, expertise string) string {
	lower := strings.ToLower(role)
	for _, p := range personalities {
		if strings.Contains(lower, p.role) {
			return fmt.Sprintf(p.template, strings.ToLower(expertise))
		}
	}
	return fmt.Sprintf("A professional %s with expertise in %s. Collaborative, knowledgeable, and focused on results through clear communication and problem-solving.",
		role, strings.ToLower(expertise))
}

// =============================================================================
// CANNED TURNS
// =============================================================================

func openingMessage(topic, convContext string, agents []model.Agent) string {
	roles := make([]string, len(agents))
	for i, a := range agents {
		roles[i] = a.Role
	}
	if topic == "" {
		topic = "your request"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome everyone! We're here to discuss %s.", topic)
	if convContext != "" {
		fmt.Fprintf(&b, " %s.", strings.TrimRight(convContext, "."))
	}
	fmt.Fprintf(&b, " I'm looking forward to hearing from our team: %s. Let's begin with your initial thoughts.", strings.Join(roles, ", "))
	return b.String()
}

// replyRules pick an agent's canned reply by role, first match wins.
var replyRules = []struct {
	keywords []string
	template func(a model.Agent, topic string) string
}{
	{[]string{"product", "manager"}, func(a model.Agent, topic string) string {
		return fmt.Sprintf("As %s, I think we should approach %s systematically. From my expertise in %s, the key considerations are user needs, market opportunities and alignment with business objectives. What are your thoughts on technical feasibility and timeline?",
			article(a.Role), topic, strings.ToLower(a.Expertise))
	}},
	{[]string{"developer", "technical", "engineer"}, func(a model.Agent, topic string) string {
		return fmt.Sprintf("From a technical perspective on %s, I see both opportunities and challenges. My background in %s says we need to weigh implementation complexity, scalability and maintainability. I'd start with a proof of concept to validate the approach. How does that fit the strategic vision?",
			topic, strings.ToLower(a.Expertise))
	}},
	{[]string{"designer", "ux", "creative"}, func(a model.Agent, topic string) string {
		return fmt.Sprintf("As %s, I'm excited about %s. We need to prioritize user experience and design consistency. I suggest user research to find the pain points before we commit to a solution. How do we balance user needs with technical constraints?",
			article(a.Role), topic)
	}},
	{[]string{"marketing", "analyst", "data"}, func(a model.Agent, topic string) string {
		return fmt.Sprintf("Looking at %s through the lens of %s, we should understand the target audience, measure performance and optimize on results. I recommend clear KPIs that we track every week. What are your thoughts on the strategic direction?",
			topic, strings.ToLower(a.Expertise))
	}},
}

func agentReply(a model.Agent, topic string) string {
	if topic == "" {
		topic = "this topic"
	}
	lower := strings.ToLower(a.Role)
	for _, r := range replyRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.template(a, topic)
			}
		}
	}
	return fmt.Sprintf("As %s with expertise in %s, I have a few insights on %s. We should consider multiple perspectives and keep the approach well-rounded. What should we prioritize first?",
		article(a.Role), strings.ToLower(a.Expertise), topic)
}

func exchangeAnalysis(responses []backend.AgentResponse) string {
	roles := make([]string, len(responses))
	for i, r := range responses {
		roles[i] = r.AgentRole
	}
	return fmt.Sprintf("Excellent exchange! %s have provided valuable perspectives. I see good collaboration and thoughtful insights. Let's keep building on these ideas in the next exchange.",
		strings.Join(roles, ", "))
}

func article(role string) string {
	if role == "" {
		return "a team member"
	}
	switch strings.ToLower(role[:1]) {
	case "a", "e", "i", "o", "u":
		return "an " + role
	}
	return "a " + role
}
