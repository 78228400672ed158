package activity

import (
	"strings"

	"github.com/mssola/useragent"
)

// AgentInfo is the display form of a raw User-Agent header.
type AgentInfo struct {
	Browser string `json:"browser"`
	Version string `json:"version"`
	OS      string `json:"os"`
	Device  string `json:"device"` // mobile, desktop, bot, unknown
}

func ParseAgent(raw string) AgentInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AgentInfo{Browser: "Unknown", OS: "Unknown", Device: "unknown"}
	}

	ua := useragent.New(raw)
	name, version := ua.Browser()
	info := AgentInfo{
		Browser: name,
		Version: version,
		OS:      ua.OS(),
		Device:  "desktop",
	}
	switch {
	case ua.Bot():
		info.Device = "bot"
	case ua.Mobile():
		info.Device = "mobile"
	}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}
	return info
}
