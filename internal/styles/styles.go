// Package styles is the single visual-style lookup table consumed by both
// the script and image prompt builders, so the two gateways never drift.
package styles

// Style describes one selectable visual style.
type Style struct {
	ID string
	// ScriptDirective is appended to the LLM system prompt so visual
	// descriptions come back already written in the chosen style.
	ScriptDirective string
	// ImageModifier is appended to image prompts.
	ImageModifier string
}

var table = map[string]Style{
	"cinematic": {
		ID:              "cinematic",
		ScriptDirective: "Write visual descriptions as cinematic film shots: dramatic lighting, shallow depth of field, camera angles.",
		ImageModifier:   "cinematic film still, dramatic lighting, shallow depth of field, 35mm",
	},
	"realistic": {
		ID:              "realistic",
		ScriptDirective: "Write visual descriptions as photorealistic scenes with natural lighting and documentary framing.",
		ImageModifier:   "photorealistic, natural lighting, highly detailed, 8k photography",
	},
	"anime": {
		ID:              "anime",
		ScriptDirective: "Write visual descriptions suited to Japanese anime: expressive characters, bold outlines, vivid skies.",
		ImageModifier:   "anime style, studio quality, vibrant colors, detailed background art",
	},
	"cartoon": {
		ID:              "cartoon",
		ScriptDirective: "Write visual descriptions suited to a playful 3D cartoon: rounded shapes, bright palettes, exaggerated expressions.",
		ImageModifier:   "3d cartoon render, pixar style, soft lighting, colorful",
	},
	"watercolor": {
		ID:              "watercolor",
		ScriptDirective: "Write visual descriptions as soft watercolor paintings: washes of color, gentle edges, paper texture.",
		ImageModifier:   "watercolor painting, soft washes, textured paper, muted palette",
	},
	"cyberpunk": {
		ID:              "cyberpunk",
		ScriptDirective: "Write visual descriptions in a cyberpunk register: neon, rain-slicked streets, holographic signage, high contrast.",
		ImageModifier:   "cyberpunk, neon lights, rain, futuristic cityscape, high contrast",
	},
}

// Lookup returns the style for an id. Unknown or empty ids fall back to
// cinematic, the application default.
func Lookup(id string) Style {
	if s, ok := table[id]; ok {
		return s
	}
	return table["cinematic"]
}

// ApplyImageModifier appends the style's image modifier to a prompt.
func (s Style) ApplyImageModifier(prompt string) string {
	if s.ImageModifier == "" || prompt == "" {
		return prompt
	}
	return prompt + ", " + s.ImageModifier
}

// Known reports whether id names a defined style.
func Known(id string) bool {
	_, ok := table[id]
	return ok
}
