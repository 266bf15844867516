package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/blastgrid/internal/game"
)

// Color palette
var (
	// Tile styles
	hardWallStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3a3a3a")).
			Foreground(lipgloss.Color("#555555"))

	softWallStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B6914")).
			Foreground(lipgloss.Color("#A0772B"))

	emptyStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(lipgloss.Color("#1a1a2e"))

	deathStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#5a0000")).
			Foreground(lipgloss.Color("#aa0000"))

	warningStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(lipgloss.Color("#ff2222")).
			Bold(true)

	gatewayStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#223366")).
			Foreground(lipgloss.Color("#88ccff")).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(lipgloss.Color("#44ddff"))

	bombStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(lipgloss.Color("#ff4444")).
			Bold(true)

	fireStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#ff6600")).
			Foreground(lipgloss.Color("#ffcc00")).
			Bold(true)

	// Player colors (4 distinct colors for up to 4 players)
	playerColors = []lipgloss.Color{
		lipgloss.Color("#00ff88"), // Green
		lipgloss.Color("#4488ff"), // Blue
		lipgloss.Color("#ff44ff"), // Magenta
		lipgloss.Color("#ffff44"), // Yellow
	}

	deadPlayerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	lobbyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44aaff")).
			Bold(true)

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true).
			Blink(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// itemGlyphs label pick-ups on the board.
var itemGlyphs = map[game.Item]string{
	game.ItemBomb:         "+b",
	game.ItemFire:         "+f",
	game.ItemSuperFire:    "SF",
	game.ItemRollerSkates: "rs",
	game.ItemBoots:        "bo",
	game.ItemGloves:       "gl",
	game.ItemTrigger:      "tr",
	game.ItemJelly:        "je",
	game.ItemWallClimbing: "wc",
	game.ItemSprinkle:     "sp",
	game.ItemWallBuilding: "wb",
	game.ItemDisease:      "??",
}

// RenderBoard converts a snapshot into a styled terminal string. Players in
// mine are drawn as solid blocks.
func RenderBoard(s *game.Snapshot, mine []int) string {
	if s == nil || len(s.Walls) == 0 {
		return "Waiting for game state..."
	}

	fireSet := make(map[game.Position]bool)
	for _, f := range s.Fires {
		fireSet[game.Position{X: f.X, Y: f.Y}] = true
	}

	bombSet := make(map[game.Position]bool)
	for _, b := range s.Bombs {
		if !b.Detonated && !b.Dead {
			bombSet[game.CellOf(b.X, b.Y)] = true
		}
	}

	warnSet := make(map[game.Position]bool)
	for _, pos := range s.Warnings {
		warnSet[pos] = true
	}

	playerSet := make(map[game.Position]game.PlayerView)
	for _, p := range s.Players {
		if p.Vitality > 0 {
			playerSet[game.CellOf(p.X, p.Y)] = p
		}
	}

	rows := make([]string, 0, s.Height)
	for y := 0; y < s.Height; y++ {
		var row strings.Builder
		for x := 0; x < s.Width; x++ {
			pos := game.Position{X: x, Y: y}
			row.WriteString(renderCell(s, pos, fireSet, bombSet, warnSet, playerSet, mine))
		}
		rows = append(rows, row.String())
	}

	return strings.Join(rows, "\n")
}

// renderCell renders a single board cell with the appropriate style.
// Each cell is 2 characters wide for a square-ish appearance.
func renderCell(
	s *game.Snapshot,
	pos game.Position,
	fireSet, bombSet, warnSet map[game.Position]bool,
	playerSet map[game.Position]game.PlayerView,
	mine []int,
) string {
	// Priority: Player > Fire > Bomb > Warning > Wall > Item
	if p, ok := playerSet[pos]; ok {
		color := playerColors[p.Index%len(playerColors)]
		style := lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(color).
			Bold(true)
		label := fmt.Sprintf("P%d", p.Index+1)
		if contains(mine, p.Index) {
			label = "██"
		}
		return style.Render(label)
	}

	if fireSet[pos] {
		return fireStyle.Render("░░")
	}

	if bombSet[pos] {
		return bombStyle.Render("()")
	}

	if warnSet[pos] {
		return warningStyle.Render("!!")
	}

	switch s.Wall(pos) {
	case game.Concrete:
		return hardWallStyle.Render("██")
	case game.Brick:
		return softWallStyle.Render("▒▒")
	case game.Death:
		return deathStyle.Render("▓▓")
	case game.DeathWarning:
		return warningStyle.Render("!!")
	case game.GatewayEntrance:
		return gatewayStyle.Render("<>")
	case game.GatewayExit:
		return gatewayStyle.Render("><")
	}

	if glyph, ok := itemGlyphs[s.Item(pos)]; ok {
		return itemStyle.Render(glyph)
	}
	return emptyStyle.Render("  ")
}

// RenderHUD renders the heads-up display showing player info and game status.
func RenderHUD(s *game.Snapshot, mine []int) string {
	if s == nil {
		return ""
	}

	var parts []string

	parts = append(parts, titleStyle.Render("💣 BLASTGRID"))
	parts = append(parts, "")

	switch s.Status {
	case game.StatusLobby:
		parts = append(parts, lobbyStyle.Render("⏳ LOBBY: waiting for players..."))
		parts = append(parts, "   Press [Enter] to start!")
	case game.StatusRunning, game.StatusRoundEnding:
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).
			Render(fmt.Sprintf("🔥 ROUND %d  tick %d", s.Round, s.RoundTick)))
		if s.Countdown > 0 {
			parts = append(parts, warningStyle.Render(fmt.Sprintf("   countdown %d", s.Countdown)))
		}
	case game.StatusRoundOver:
		parts = append(parts, roundResult(s))
	case game.StatusAborted:
		parts = append(parts, dimStyle.Render("⚠ round aborted, restarting..."))
	case game.StatusOver:
		if p, ok := playerByIndex(s, s.Winner); ok {
			parts = append(parts, winnerStyle.Render(fmt.Sprintf("🏆 %s WINS THE MATCH!", p.Name)))
		} else {
			parts = append(parts, dimStyle.Render("💀 match over"))
		}
	}
	parts = append(parts, "")

	parts = append(parts, dimStyle.Render("Players:"))
	for _, p := range s.Players {
		nameStyle := lipgloss.NewStyle().Foreground(playerColors[p.Index%len(playerColors)])

		status := "❤️ "
		if p.Vitality <= 0 {
			status = "💀"
			nameStyle = deadPlayerStyle
		}

		marker := "  "
		if contains(mine, p.Index) {
			marker = "→ "
		}

		line := fmt.Sprintf("%s%s %s [💣+%d 🔥+%d] %d pts",
			marker,
			status,
			nameStyle.Render(p.Name),
			p.Items[game.ItemBomb],
			p.Items[game.ItemFire],
			p.Points,
		)
		if sick := diseases(p, s.Tick); sick != "" {
			line += " " + dimStyle.Render(sick)
		}
		parts = append(parts, line)
	}

	parts = append(parts, "")
	parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).
		Render("Arrows/WASD: Move | Space/F: Bomb | /,G: Action | Q: Quit"))

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

func roundResult(s *game.Snapshot) string {
	if p, ok := playerByIndex(s, s.Winner); ok {
		return winnerStyle.Render(fmt.Sprintf("🏁 %s takes round %d", p.Name, s.Round))
	}
	return dimStyle.Render(fmt.Sprintf("💀 DRAW in round %d", s.Round))
}

func diseases(p game.PlayerView, tick int64) string {
	var names []string
	for d := game.Disease(0); d < game.DiseaseCount; d++ {
		if p.Diseases[d] > tick {
			names = append(names, d.String())
		}
	}
	return strings.Join(names, ",")
}

func playerByIndex(s *game.Snapshot, index int) (game.PlayerView, bool) {
	for _, p := range s.Players {
		if p.Index == index {
			return p, true
		}
	}
	return game.PlayerView{}, false
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
