// Package prompt screens untrusted reservation text before any of it reaches
// the reasoning substrate.
package prompt

import (
	"regexp"
	"sort"
)

// InjectionType represents different types of prompt injection attempts
type InjectionType string

const (
	InjectionTypeSystemPromptLeak    InjectionType = "system_prompt_leak"
	InjectionTypeRoleManipulation    InjectionType = "role_manipulation"
	InjectionTypeInstructionOverride InjectionType = "instruction_override"
	InjectionTypeVerdictSteering     InjectionType = "verdict_steering"
	InjectionTypeJailbreak           InjectionType = "jailbreak"
	InjectionTypeDelimiterAttack     InjectionType = "delimiter_attack"
)

// BlockingConfidence is the confidence at which a detection stops the text
// from being sent to the substrate.
const BlockingConfidence = 0.8

// InjectionDetection represents a detected injection attempt
type InjectionDetection struct {
	Type        InjectionType
	Confidence  float64
	StartPos    int
	EndPos      int
	Description string
}

type injectionRule struct {
	kind        InjectionType
	confidence  float64
	description string
	patterns    []*regexp.Regexp
}

var injectionRules = []injectionRule{
	{
		kind:        InjectionTypeSystemPromptLeak,
		confidence:  0.9,
		description: "Attempt to reveal the reviewer instructions",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(show|reveal|print|repeat)\s+(me\s+)?(your|the)\s+(system|original|initial|hidden)\s+(prompt|instructions?)`),
			regexp.MustCompile(`(?i)what\s+(is|are)\s+(your|the)\s+(system|original|initial)\s+(prompt|instructions?)`),
		},
	},
	{
		kind:        InjectionTypeRoleManipulation,
		confidence:  0.85,
		description: "Attempt to change the reviewer role",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\byou\s+are\s+now\b`),
			regexp.MustCompile(`(?i)assume\s+(the\s+)?(role|identity)\s+of`),
			regexp.MustCompile(`(?i)pretend\s+(to\s+)?be\s+(a|an|the)\b`),
			regexp.MustCompile(`(?i)act\s+as\s+(if\s+)?(you|you're|you\s+are)\b`),
			regexp.MustCompile(`(?i)from\s+now\s+on,?\s+you\s+(are|will)`),
		},
	},
	{
		kind:        InjectionTypeInstructionOverride,
		confidence:  0.9,
		description: "Attempt to override the reviewer instructions",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(ignore|disregard|forget|override|cancel)\s+(all\s+|any\s+)?(of\s+)?(the\s+|your\s+|my\s+)?((previous|prior|above|earlier|system)\s+)?(instructions?|prompts?|rules|regulations|commands?)\b`),
			regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
		},
	},
	{
		kind:        InjectionTypeVerdictSteering,
		confidence:  0.9,
		description: "Attempt to dictate the review decision",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(respond|reply|answer|output|return|say)\s+(with\s+|only\s+)?["'\x60]?(approved|rejected|manual_review)\b`),
			regexp.MustCompile(`(?i)["']?decision["']?\s*[:=]\s*["']?(approved|rejected|manual_review)\b`),
			regexp.MustCompile(`(?i)(you\s+must|always|automatically)\s+approve\b`),
		},
	},
	{
		kind:        InjectionTypeJailbreak,
		confidence:  0.95,
		description: "Known jailbreak phrasing",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bDAN\s+mode\b`),
			regexp.MustCompile(`(?i)\b(developer|unrestricted|god)\s+mode\b`),
			regexp.MustCompile(`(?i)without\s+(any|ethical|moral)\s+(restrictions?|limitations?|guidelines?)`),
		},
	},
	{
		kind:        InjectionTypeDelimiterAttack,
		confidence:  0.8,
		description: "Attempt to forge conversation delimiters",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\[/?(SYSTEM|USER|ASSISTANT)\]`),
			regexp.MustCompile(`<\|(system|user|assistant|end|im_start|im_end)\|>`),
			regexp.MustCompile(`(?i)###\s*(system|user|assistant|instruction)`),
		},
	},
}

// DetectInjections returns every injection pattern found in text, ordered
// by position.
func DetectInjections(text string) []InjectionDetection {
	var detections []InjectionDetection

	for _, rule := range injectionRules {
		for _, pattern := range rule.patterns {
			for _, match := range pattern.FindAllStringIndex(text, -1) {
				detections = append(detections, InjectionDetection{
					Type:        rule.kind,
					Confidence:  rule.confidence,
					StartPos:    match[0],
					EndPos:      match[1],
					Description: rule.description,
				})
			}
		}
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].StartPos < detections[j].StartPos
	})
	return detections
}

// StrongestInjection returns the highest-confidence detection at or above
// BlockingConfidence.
func StrongestInjection(text string) (InjectionDetection, bool) {
	var best InjectionDetection
	found := false
	for _, d := range DetectInjections(text) {
		if d.Confidence >= BlockingConfidence && (!found || d.Confidence > best.Confidence) {
			best = d
			found = true
		}
	}
	return best, found
}
