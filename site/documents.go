package site

// SiteConfig is data/config.json.
type SiteConfig struct {
	SiteName string         `json:"siteName"`
	Version  string         `json:"version"`
	Theme    string         `json:"theme"`
	Raw      map[string]any `json:"-"`
}

type Hero struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Section is a titled list of cards (research items, downloads).
type Section struct {
	Title string           `json:"title"`
	Items []map[string]any `json:"items"`
}

// Content is data/content.json. A nil section was absent from the document.
type Content struct {
	Hero      *Hero    `json:"hero"`
	Research  *Section `json:"research"`
	Downloads *Section `json:"downloads"`
}

type Member struct {
	Name string         `json:"name"`
	Role string         `json:"role"`
	Raw  map[string]any `json:"-"`
}

// Team is data/team.json.
type Team struct {
	Members []Member `json:"members"`
}

func DefaultConfig() SiteConfig {
	return SiteConfig{
		SiteName: "SISR Project",
		Version:  "1.0.0",
		Theme:    "default",
	}
}

func DefaultContent() Content {
	return Content{
		Hero: &Hero{
			Title:       "SISR Project",
			Description: "Single Image Super-Resolution Research",
		},
		Research: &Section{
			Title: "Research Overview",
			Items: []map[string]any{},
		},
		Downloads: &Section{
			Title: "Downloads",
			Items: []map[string]any{},
		},
	}
}

func DefaultTeam() Team {
	return Team{Members: []Member{}}
}

// truthy follows the loose presence check the page scripts use: missing,
// null, false, 0 and "" all count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func str(m map[string]any, k string) string {
	s, _ := m[k].(string)
	return s
}

func section(v any) *Section {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	s := &Section{Title: str(m, "title"), Items: []map[string]any{}}
	if items, ok := m["items"].([]any); ok {
		for _, it := range items {
			if im, ok := it.(map[string]any); ok {
				s.Items = append(s.Items, im)
			}
		}
	}
	return s
}
