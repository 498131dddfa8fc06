// Package catalog holds the static list of syndicated feeds the pipeline
// ingests and the topical domains articles are sorted into.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// Source describes one syndicated feed.
type Source struct {
	ID       string `yaml:"id" json:"sourceId"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Name     string `yaml:"name" json:"name,omitempty"`
}

// DisplayName returns Name, falling back to the identifier.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Domain is a selectable article grouping. ID "all" matches every article.
type Domain struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// All is the pseudo-domain selecting every article.
const All = "all"

// Domains lists the browsable groupings in display order.
var Domains = []Domain{
	{ID: All, Name: "All", Icon: "◉"},
	{ID: "ai", Name: "AI", Icon: "◎"},
	{ID: "drones", Name: "Drones", Icon: "◈"},
	{ID: "arms", Name: "Arms", Icon: "◇"},
	{ID: "humanoids", Name: "Humanoids", Icon: "◆"},
	{ID: "mobile", Name: "Mobile", Icon: "○"},
	{ID: "industrial", Name: "Industrial", Icon: "□"},
	{ID: "diy", Name: "DIY", Icon: "△"},
}

// Default returns a copy of the built-in feed catalog.
func Default() []Source {
	out := make([]Source, len(defaultSources))
	copy(out, defaultSources)
	return out
}

// Validate checks that every source has a unique identifier and an absolute
// http(s) endpoint.
func Validate(sources []Source) error {
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("source %d: missing id", i)
		}
		if seen[id] {
			return fmt.Errorf("source %s: duplicate id", id)
		}
		seen[id] = true

		u, err := url.Parse(s.Endpoint)
		if err != nil {
			return fmt.Errorf("source %s: invalid endpoint: %w", id, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source %s: endpoint must be an absolute http(s) URL", id)
		}
	}
	return nil
}

var defaultSources = []Source{
	// Major news sites
	{ID: "ieee", Endpoint: "https://spectrum.ieee.org/feeds/topic/robotics.rss", Name: "IEEE Spectrum Robotics"},
	{ID: "robotreport", Endpoint: "https://www.therobotreport.com/feed/", Name: "The Robot Report"},
	{ID: "robohub", Endpoint: "https://robohub.org/feed/", Name: "Robohub"},
	{ID: "ranews", Endpoint: "https://roboticsandautomationnews.com/feed/", Name: "Robotics & Automation News"},
	{ID: "sciencedaily", Endpoint: "https://www.sciencedaily.com/rss/computers_math/robotics.xml", Name: "ScienceDaily Robotics"},

	// Tech and maker sites
	{ID: "hackaday", Endpoint: "https://hackaday.com/tag/robots/feed/", Name: "Hackaday"},
	{ID: "reddit", Endpoint: "https://www.reddit.com/r/robotics/.rss", Name: "r/robotics"},
	{ID: "reddit-ros", Endpoint: "https://www.reddit.com/r/ROS/.rss", Name: "r/ROS"},

	// University and research
	{ID: "mit", Endpoint: "https://news.mit.edu/rss/topic/robotics", Name: "MIT Robotics"},
	{ID: "techxplore", Endpoint: "https://techxplore.com/rss-feed/robotics-news/", Name: "TechXplore Robotics"},

	// Industry blogs
	{ID: "robotiq", Endpoint: "https://blog.robotiq.com/rss.xml", Name: "Robotiq Blog"},
	{ID: "ur", Endpoint: "https://www.universal-robots.com/blog/rss/", Name: "Universal Robots"},

	// AI and robotics
	{ID: "aibusiness", Endpoint: "https://aibusiness.com/rss.xml", Name: "AI Business"},
	{ID: "venturebeat", Endpoint: "https://venturebeat.com/category/ai/feed/", Name: "VentureBeat AI"},

	// Drones
	{ID: "dronedj", Endpoint: "https://dronedj.com/feed/", Name: "DroneDJ"},
	{ID: "dronegirl", Endpoint: "https://www.thedronegirl.com/feed/", Name: "The Drone Girl"},

	// Hardware and electronics
	{ID: "sparkfun", Endpoint: "https://www.sparkfun.com/feeds/news", Name: "SparkFun"},
	{ID: "adafruit", Endpoint: "https://blog.adafruit.com/category/robots-robotics/feed/", Name: "Adafruit Robotics"},

	// Automation and industrial
	{ID: "autoworld", Endpoint: "https://www.automationworld.com/rss.xml", Name: "Automation World"},
	{ID: "manufacturer", Endpoint: "https://www.themanufacturer.com/feed/", Name: "The Manufacturer"},

	// General tech, robotics tagged
	{ID: "techcrunch", Endpoint: "https://techcrunch.com/tag/robotics/feed/", Name: "TechCrunch Robotics"},
	{ID: "arstechnica", Endpoint: "https://arstechnica.com/tag/robots/feed/", Name: "Ars Technica Robots"},

	// AI news
	{ID: "openai", Endpoint: "https://openai.com/blog/rss/", Name: "OpenAI Blog"},
	{ID: "google-ai", Endpoint: "https://blog.google/technology/ai/rss/", Name: "Google AI Blog"},
	{ID: "marktechpost", Endpoint: "https://www.marktechpost.com/feed/", Name: "MarkTechPost AI"},
	{ID: "decoder", Endpoint: "https://the-decoder.com/feed/", Name: "The Decoder"},
	{ID: "synced", Endpoint: "https://syncedreview.com/feed/", Name: "Synced AI"},
	{ID: "ainews", Endpoint: "https://www.artificialintelligence-news.com/feed/", Name: "AI News"},
}
