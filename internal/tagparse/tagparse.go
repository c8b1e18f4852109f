// Package tagparse extracts loosely tagged key/value data from free-form
// LLM completions. The parser is line oriented and tolerant: anything it does
// not recognize is ignored.
package tagparse

import (
	"regexp"
	"strings"
)

var openRe = regexp.MustCompile(`<([a-zA-Z_][a-zA-Z0-9_]*)>`)

// BlockSpec describes a repeated block such as <source>...</source>.
type BlockSpec struct {
	Tag      string
	Required []string
	Optional []string
}

// Block is the set of sub-tag values collected for one block.
type Block map[string]string

// ParseBlocks returns every complete block in source order. A block missing a
// required sub-tag is dropped. An opening tag seen while a block is still open
// closes the previous one.
func ParseBlocks(text string, spec BlockSpec) []Block {
	known := make(map[string]bool, len(spec.Required)+len(spec.Optional))
	for _, t := range spec.Required {
		known[t] = true
	}
	for _, t := range spec.Optional {
		known[t] = true
	}

	open := "<" + spec.Tag + ">"
	closing := "</" + spec.Tag + ">"

	var (
		blocks  []Block
		current Block
	)
	flush := func() {
		if current != nil && hasRequired(current, spec.Required) {
			blocks = append(blocks, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, open) {
			flush()
			current = Block{}
			line = strings.TrimSpace(strings.TrimPrefix(line, open))
		}
		if current == nil {
			continue
		}
		ended := false
		if idx := strings.Index(line, closing); idx >= 0 {
			line = line[:idx]
			ended = true
		}
		for name, value := range pairs(line) {
			if !known[name] {
				continue
			}
			if _, seen := current[name]; !seen {
				current[name] = value
			}
		}
		if ended {
			flush()
		}
	}
	flush()
	return blocks
}

// ParseList returns the values of every single-line <tag>value</tag> in order.
// Pairs wrapped in another tag on the same line are found too. Blank values
// are dropped.
func ParseList(text, tag string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = appendTagged(out, line, tag)
	}
	return out
}

func appendTagged(out []string, line, tag string) []string {
	for name, value := range pairs(line) {
		switch {
		case name == tag:
			out = append(out, value)
		case strings.Contains(value, "<"+tag+">"):
			out = appendTagged(out, value, tag)
		}
	}
	return out
}

// ParseFieldMap collects every single-line <name>value</name> pair except the
// wrapper tag itself. The first non-blank value for a name wins.
func ParseFieldMap(text, wrapper string) map[string]string {
	out := make(map[string]string)
	strip := strings.NewReplacer("<"+wrapper+">", "", "</"+wrapper+">", "")
	for _, line := range strings.Split(text, "\n") {
		for name, value := range pairs(strip.Replace(line)) {
			if _, seen := out[name]; !seen {
				out[name] = value
			}
		}
	}
	return out
}

// pairs yields the non-blank <name>value</name> pairs on one line in order.
// Values may themselves contain markup; the outermost pair wins.
func pairs(line string) func(yield func(string, string) bool) {
	return func(yield func(string, string) bool) {
		pos := 0
		for pos < len(line) {
			loc := openRe.FindStringSubmatchIndex(line[pos:])
			if loc == nil {
				return
			}
			name := line[pos+loc[2] : pos+loc[3]]
			start := pos + loc[1]
			end := strings.Index(line[start:], "</"+name+">")
			if end < 0 {
				pos = start
				continue
			}
			v := strings.TrimSpace(line[start : start+end])
			pos = start + end + len(name) + 3
			if v == "" {
				continue
			}
			if !yield(name, v) {
				return
			}
		}
	}
}

func hasRequired(b Block, required []string) bool {
	for _, r := range required {
		if strings.TrimSpace(b[r]) == "" {
			return false
		}
	}
	return true
}
