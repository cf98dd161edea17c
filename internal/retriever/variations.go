package retriever

import (
	"regexp"
)

// numericCore matches a leading run of digits, letting variations()
// broaden targets like "3号" or "6号" (numeric id plus a trailing
// measure word) the same way it broadens a bare "3".
var numericCore = regexp.MustCompile(`^\d+`)

// landingPadSynonyms is the fixed family of terms retrieve_missing tries
// whenever a target names the black-and-white landing pad, since seed
// data and user phrasing mix Chinese and English for it interchangeably.
var landingPadSynonyms = []string{
	"黑白", "着陆", "landing", "着陆点", "landing pad", "landing zone", "黑白着陆点",
}

// variations generates the textual search variations retrieve_missing
// tries for one target: numeric ids get Chinese ordinal/measure-word
// forms, landing-pad mentions get the fixed synonym family, and anything
// else falls back to just the target itself.
func variations(target string) []string {
	if core := numericCore.FindString(target); core != "" {
		out := []string{target}
		if core != target {
			out = append(out, core)
		}
		out = append(out, core+"号", "编号"+core, "第"+core+"号")
		return out
	}

	if isLandingPadMention(target) {
		out := make([]string, 0, len(landingPadSynonyms)+1)
		out = append(out, target)
		out = append(out, landingPadSynonyms...)
		return out
	}

	return []string{target}
}

func isLandingPadMention(target string) bool {
	for _, syn := range landingPadSynonyms {
		if target == syn {
			return true
		}
	}
	return false
}
