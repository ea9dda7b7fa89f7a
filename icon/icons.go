package icon

// Icon names a symbol in the registry.
type Icon int

const (
	Fail Icon = iota + 1
	Success
	Progress
	Question
	Video
	Image
	Link
	Queue
	Selected
	Server
	Download
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "X",
		kaomoji: "(×﹏×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "👾",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Question: {
		emoji:   "🤔",
		nerd:    "",
		plain:   "?",
		kaomoji: "(・・?)",
		squares: "🟨",
	},
	Video: {
		emoji:   "🎬",
		nerd:    "",
		plain:   "[v]",
		kaomoji: "(▀̿Ĺ̯▀̿ ̿)",
		squares: "🟪",
	},
	Image: {
		emoji:   "🖼",
		nerd:    "",
		plain:   "[i]",
		kaomoji: "(◕‿◕)",
		squares: "🟧",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "->",
		kaomoji: "(☞ﾟヮﾟ)☞",
		squares: "⬜",
	},
	Queue: {
		emoji:   "📼",
		nerd:    "",
		plain:   "#",
		kaomoji: "(ง •̀_•́)ง",
		squares: "🟫",
	},
	Selected: {
		emoji:   "👉",
		nerd:    "",
		plain:   "*",
		kaomoji: "(ﾉ◕ヮ◕)ﾉ",
		squares: "▶",
	},
	Server: {
		emoji:   "📡",
		nerd:    "",
		plain:   "@",
		kaomoji: "ヽ(°〇°)ﾉ",
		squares: "⬛",
	},
	Download: {
		emoji:   "📥",
		nerd:    "",
		plain:   "v",
		kaomoji: "(っ˘ω˘ς)",
		squares: "🔽",
	},
}
