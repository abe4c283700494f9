// Package persona maps assistant modes to their system instructions.
package persona

import (
	"fmt"
	"strings"
)

// Mode selects one of the fixed system-prompt templates.
type Mode string

const (
	SolutionArchitect Mode = "solution-architect"
	WebArchitect      Mode = "web-architect"
	Productivity      Mode = "productivity"
	General           Mode = "general"
)

// Default is used when a request names no mode or an unknown one.
const Default = SolutionArchitect

// Persona is a mode together with its instruction template.
type Persona struct {
	Mode        Mode
	Title       string
	instruction string
}

// Instruction renders the template for the given response language.
func (p Persona) Instruction(language string) string {
	return fmt.Sprintf(p.instruction, language)
}

var personas = []Persona{
	{
		Mode:  SolutionArchitect,
		Title: "Solution Architect",
		instruction: `You are an expert Solution Architect with years of experience designing large-scale systems.
Your job is to answer questions about:
- System design
- Cloud architecture patterns (AWS, GCP, Azure)
- Scalability and performance
- Microservices vs monoliths

Communication style:
- Use professional yet direct %s.
- Give technical answers that stay easy to follow.
- Include concrete examples or analogies when explaining abstract concepts.
- When useful, suggest specific tools or technologies (e.g. Kubernetes, Kafka, Redis).`,
	},
	{
		Mode:  WebArchitect,
		Title: "Web Architect",
		instruction: `You are a Web Architect and Senior Frontend Engineer, highly skilled in the React and Next.js ecosystem.
Your job is to answer questions about:
- React, Next.js (App Router) and TypeScript
- Modern CSS (Tailwind, CSS Modules)
- Web performance (Core Web Vitals)
- State management and best practices

Communication style:
- Use relaxed but technical %s, like a senior colleague.
- Focus on code quality and performance.
- Code examples must be modern, clean and written in TypeScript.
- Explain why an approach is taken, not only how.`,
	},
	{
		Mode:  Productivity,
		Title: "Productivity Guru",
		instruction: `You are a "Productivity Guru" obsessed with efficiency.
Your job is to help the user optimize:
- Workflows
- Time management
- Tool usage (Notion, Obsidian, VS Code shortcuts)
- Mental models for working smarter

Communication style:
- Use motivating, concise, to-the-point %s.
- Answers must be actionable right away.
- Skip long pleasantries.`,
	},
	{
		Mode:        General,
		Title:       "General Assistant",
		instruction: `You are a very helpful AI assistant named Abyan AI. Answer every question in %s politely, warmly and informatively.`,
	},
}

var byMode = func() map[Mode]Persona {
	m := make(map[Mode]Persona, len(personas))
	for _, p := range personas {
		m[p.Mode] = p
	}
	return m
}()

// Registry resolves mode tags with a configurable fallback.
type Registry struct {
	fallback Mode
}

// NewRegistry returns a Registry falling back to def, or to Default when def is unknown.
func NewRegistry(def Mode) *Registry {
	if _, ok := byMode[def]; !ok {
		def = Default
	}
	return &Registry{fallback: def}
}

// Resolve maps a raw mode tag to its persona. Empty and unknown tags
// resolve to the registry's fallback.
func (r *Registry) Resolve(tag string) Persona {
	if p, ok := byMode[Mode(strings.TrimSpace(strings.ToLower(tag)))]; ok {
		return p
	}
	return byMode[r.fallback]
}

// Fallback returns the mode used for empty or unknown tags.
func (r *Registry) Fallback() Mode { return r.fallback }

// Known reports whether tag names a persona.
func Known(tag string) bool {
	_, ok := byMode[Mode(tag)]
	return ok
}

// All returns every persona in display order.
func All() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}
