package bundle

import (
	"encoding/json"
	"strings"

	"github.com/yungbote/skillhub-backend/internal/domain/skills"
)

// SafeJSON returns raw as a JSON payload when it parses, nil otherwise.
func SafeJSON(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" || !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

type toolMetadataWire struct {
	Emoji      string      `json:"emoji"`
	Homepage   string      `json:"homepage"`
	OS         stringList  `json:"os"`
	PrimaryEnv string      `json:"primaryEnv"`
	Requires   *requiresIn `json:"requires"`
}

type requiresIn struct {
	Bins stringList `json:"bins"`
	Env  stringList `json:"env"`
}

// stringList accepts either a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	if one = strings.TrimSpace(one); one != "" {
		*l = []string{one}
	}
	return nil
}

// ParseToolMetadata extracts the "clawdis" block from the parsed metadata
// object, falling back to a "clawdis" frontmatter value. Malformed data
// yields nil.
func ParseToolMetadata(fm map[string]string, metadata json.RawMessage) *skills.ToolMetadata {
	var raw json.RawMessage
	if len(metadata) > 0 {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(metadata, &obj); err == nil {
			raw = obj["clawdis"]
		}
	}
	if len(raw) == 0 {
		raw = SafeJSON(FrontmatterValue(fm, "clawdis"))
	}
	if len(raw) == 0 {
		return nil
	}

	var wire toolMetadataWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	out := &skills.ToolMetadata{
		Emoji:      strings.TrimSpace(wire.Emoji),
		Homepage:   strings.TrimSpace(wire.Homepage),
		OS:         cleanList(wire.OS),
		PrimaryEnv: strings.TrimSpace(wire.PrimaryEnv),
	}
	if wire.Requires != nil {
		out.Bins = cleanList(wire.Requires.Bins)
		out.Env = cleanList(wire.Requires.Env)
	}
	if out.Emoji == "" && out.Homepage == "" && out.PrimaryEnv == "" &&
		len(out.OS) == 0 && len(out.Bins) == 0 && len(out.Env) == 0 {
		return nil
	}
	return out
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseReadme runs every readme extraction step.
func ParseReadme(readme string) skills.ParsedMetadata {
	fm := ParseFrontmatter(readme)
	metadata := SafeJSON(FrontmatterValue(fm, "metadata"))
	return skills.ParsedMetadata{
		Frontmatter: fm,
		Metadata:    metadata,
		Clawdis:     ParseToolMetadata(fm, metadata),
	}
}
