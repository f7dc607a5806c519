package models

import "fmt"

// Script is the structured narrative produced by the LLM gateway. It is
// persisted on the project as a jsonb document and is the source of truth for
// every later generation step.
type Script struct {
	Title  string  `json:"title"`
	Music  string  `json:"music"`
	Scenes []Scene `json:"scenes"`
}

// Scene is one narrative beat. SceneNumber is the join key across the whole
// pipeline (images, videos, voice) — never an array index.
type Scene struct {
	SceneNumber       int    `json:"scene_number"`
	Title             string `json:"title"`
	VisualDescription string `json:"visual_description"`
	Narration         string `json:"narration"`
}

// Normalize assigns unique positive scene numbers. LLM output occasionally
// repeats or omits numbers; generation time is the only point where numbers
// may be (re)assigned.
func (s *Script) Normalize() {
	seen := make(map[int]bool, len(s.Scenes))
	next := 1
	for i := range s.Scenes {
		n := s.Scenes[i].SceneNumber
		if n <= 0 || seen[n] {
			for seen[next] {
				next++
			}
			n = next
		}
		seen[n] = true
		s.Scenes[i].SceneNumber = n
	}
}

// Validate checks the invariants the pipeline depends on.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("script has no scenes")
	}
	seen := make(map[int]bool, len(s.Scenes))
	for _, sc := range s.Scenes {
		if sc.SceneNumber <= 0 {
			return fmt.Errorf("scene %q has non-positive scene_number %d", sc.Title, sc.SceneNumber)
		}
		if seen[sc.SceneNumber] {
			return fmt.Errorf("duplicate scene_number %d", sc.SceneNumber)
		}
		seen[sc.SceneNumber] = true
	}
	return nil
}

// SceneByNumber looks a scene up by its stable number.
func (s *Script) SceneByNumber(n int) (*Scene, bool) {
	for i := range s.Scenes {
		if s.Scenes[i].SceneNumber == n {
			return &s.Scenes[i], true
		}
	}
	return nil, false
}
