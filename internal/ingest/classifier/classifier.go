// Package classifier assigns an article to a topical domain using keyword
// phrase matching over its title and summary.
package classifier

import "strings"

// General is the fallback label for text matching no domain.
const General = "general"

type domainKeywords struct {
	label    string
	keywords []string
}

// The iteration order of this table is the tie-break order. Articles already
// stored were labeled with it, so entries must not be reordered.
var table = []domainKeywords{
	{"ai", []string{
		"artificial intelligence", "machine learning", "deep learning", "neural network",
		"llm", "large language model", "gpt", "openai", "anthropic", "claude", "gemini",
		"chatgpt", "transformer", "diffusion", "stable diffusion", "generative ai", "gen ai",
		"ai model", "foundation model", "training", "inference", "nlp", "natural language",
		"computer vision", "ml ops", "reinforcement learning", "ai agent", "multimodal", "embedding",
	}},
	{"drones", []string{
		"drone", "quadcopter", "dji", "fpv", "uav", "aerial", "multirotor", "hexacopter",
		"octocopter", "mavic", "phantom", "skydio", "parrot", "flying robot", "unmanned aerial", "vtol",
	}},
	{"arms", []string{
		"robot arm", "robotic arm", "gripper", "manipulator", "pick and place", "cobot",
		"collaborative robot", "end effector", "6-axis", "7-axis", "delta robot", "scara",
		"articulated arm", "robotic hand",
	}},
	{"humanoids", []string{
		"humanoid", "bipedal", "tesla bot", "optimus", "figure 01", "figure 02",
		"boston dynamics", "atlas", "digit", "agility", "walking robot", "android",
		"anthropomorphic", "unitree",
	}},
	{"mobile", []string{
		"agv", "amr", "warehouse robot", "wheeled robot", "rover", "mobile robot",
		"autonomous vehicle", "self-driving", "navigation", "slam", "lidar", "mapping",
		"path planning", "delivery robot", "spot",
	}},
	{"industrial", []string{
		"factory", "manufacturing", "fanuc", "kuka", "abb", "yaskawa", "industrial robot",
		"assembly line", "welding robot", "palletizing", "cnc", "automation",
		"production line", "universal robots",
	}},
	{"diy", []string{
		"arduino", "raspberry pi", "diy", "hobby", "3d print", "maker", "homemade",
		"build your own", "tutorial", "project", "esp32", "servo", "stepper", "breadboard",
		"open source hardware",
	}},
}

// Classify returns the domain whose keyword phrases occur most often in the
// lower-cased title and summary. Each phrase counts once. Ties go to the
// domain listed first; no match at all yields General.
func Classify(title, summary string) string {
	text := strings.ToLower(title + " " + summary)

	best, bestScore := General, 0
	for _, d := range table {
		score := 0
		for _, kw := range d.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d.label, score
		}
	}
	return best
}

// Labels returns every label Classify can produce, in tie-break order with
// General last.
func Labels() []string {
	out := make([]string, 0, len(table)+1)
	for _, d := range table {
		out = append(out, d.label)
	}
	return append(out, General)
}

// Valid reports whether label is one Classify can produce.
func Valid(label string) bool {
	if label == General {
		return true
	}
	for _, d := range table {
		if d.label == label {
			return true
		}
	}
	return false
}
