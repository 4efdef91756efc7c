// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cleanup turns scraped paper text into a readable abstract.
// Provider results carry whole page bodies: navigation chrome, PMC
// banners, markdown leftovers, reference lists. The pipeline strips
// that down to the abstract, or failing that, the few sentences most
// likely to be one.
package cleanup

import (
	"regexp"
	"strings"
)

// Scraped pages from PubMed Central and similar hosts repeat these
// phrases in their chrome. Each is removed wherever it appears, along
// with the rest of the markdown link when it sits inside one.
var boilerplatePhrases = []string{
	`\[Skip to main content\]`,
	`Official websites use \.gov`,
	`Secure \.gov websites use HTTPS`,
	`Search PMC`,
	`Advanced Search`,
	`Journal List`,
	`User Guide`,
	`PERMALINK`,
	`PMC Disclaimer`,
	`PMC Copyright Notice`,
	`Find articles by`,
	`Author information`,
	`Article notes`,
	`Copyright and License information`,
	`PMCID:`,
}

var (
	boilerplateRe = compileBoilerplate()

	urlRe        = regexp.MustCompile(`(?i)https?://[^\s)]+`)
	parenRe      = regexp.MustCompile(`\([^)]*\)`)
	bracketRe    = regexp.MustCompile(`!?\[[^\]]*\]`)
	headerRe     = regexp.MustCompile(`#{1,6}\s*`)
	emphasisRe   = regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`)
	underscoreRe = regexp.MustCompile(`_{1,2}([^_]+)_{1,2}`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`\s{2,}`)

	abstractRe  = regexp.MustCompile(`(?is)abstract\s*:?\s*(.*?)(?:keywords|highlights|introduction|methods|results|conclusion|references|$)`)
	sentenceRe  = regexp.MustCompile(`[.!?]+`)
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
)

func compileBoilerplate() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(boilerplatePhrases))
	for _, phrase := range boilerplatePhrases {
		res = append(res, regexp.MustCompile(`(?i)`+phrase+`(?:[^)]*\))?`))
	}
	return res
}

// A stage is one named transformation of the text. Stages run in
// order; name shows up when tracing a surprising result.
type stage struct {
	name  string
	apply func(string) string
}

// Pipeline cleans abstracts with a fixed ordered stage list.
type Pipeline struct {
	stages []stage
}

// fallbackThreshold is the cleaned length beyond which the text is
// assumed to still be a whole page rather than an abstract.
const fallbackThreshold = 2000

// minSentenceLen filters out fragments left behind by chrome removal.
const minSentenceLen = 50

// chromeWords in a sentence mark it as site furniture, not abstract.
var chromeWords = []string{"website", "database", "PMC", "search", "navigation"}

// New builds the standard pipeline.
func New() *Pipeline {
	return &Pipeline{stages: []stage{
		{"strip-boilerplate", stripBoilerplate},
		{"strip-urls", func(s string) string { return urlRe.ReplaceAllString(s, "") }},
		{"strip-parens", func(s string) string { return parenRe.ReplaceAllString(s, "") }},
		{"strip-brackets", func(s string) string { return bracketRe.ReplaceAllString(s, "") }},
		{"strip-markdown", stripMarkdown},
		{"collapse-space", collapseSpace},
		{"isolate-abstract", isolateAbstract},
		{"sentence-fallback", sentenceFallback},
	}}
}

// Names lists the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.stages))
	for _, st := range p.stages {
		names = append(names, st.name)
	}
	return names
}

// Clean runs text through every stage. Empty input stays empty.
func (p *Pipeline) Clean(text string) string {
	if text == "" {
		return ""
	}
	for _, st := range p.stages {
		text = st.apply(text)
	}
	return text
}

func stripBoilerplate(s string) string {
	for _, re := range boilerplateRe {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

func stripMarkdown(s string) string {
	s = headerRe.ReplaceAllString(s, "")
	s = emphasisRe.ReplaceAllString(s, "$1")
	s = underscoreRe.ReplaceAllString(s, "$1")
	return s
}

func collapseSpace(s string) string {
	s = newlineRunRe.ReplaceAllString(s, "\n\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// isolateAbstract cuts the text down to the span between an "Abstract"
// marker and the next section heading, when one exists.
func isolateAbstract(s string) string {
	m := abstractRe.FindStringSubmatch(s)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return s
	}
	return strings.TrimSpace(m[1])
}

// sentenceFallback salvages page-sized text by keeping the first few
// long sentences that read like prose rather than site chrome.
func sentenceFallback(s string) string {
	if len(s) <= fallbackThreshold && !strings.Contains(s, "NLM provides access") {
		return s
	}

	var kept []string
	for _, sent := range sentenceRe.Split(s, -1) {
		sent = strings.TrimSpace(sent)
		if len(sent) <= minSentenceLen || isChrome(sent) {
			continue
		}
		kept = append(kept, sent)
		if len(kept) == 5 {
			break
		}
	}
	if len(kept) == 0 {
		return s
	}
	return strings.Join(kept, ". ") + "."
}

func isChrome(sentence string) bool {
	for _, w := range chromeWords {
		if strings.Contains(sentence, w) {
			return true
		}
	}
	return false
}

// FormatMarkdown shapes a cleaned abstract for display: paragraphs
// separated by blank lines, short dot-free paragraphs promoted to bold
// headings.
func FormatMarkdown(text string) string {
	if text == "" {
		return ""
	}
	var out []string
	for _, para := range paragraphRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) < 100 && !strings.Contains(para, ".") {
			para = "**" + para + "**"
		}
		out = append(out, para)
	}
	return strings.Join(out, "\n\n")
}
