package banner

import (
	"chaosdash/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
        __                          __           __  
  _____/ /_  ____ _____  _________/ /___ ______/ /_ 
 / ___/ __ \/ __ '/ __ \/ ___/ __  / __ '/ ___/ __ \
/ /__/ / / / /_/ / /_/ (__  ) /_/ / /_/ (__  ) / / /
\___/_/ /_/\__,_/\____/____/\__,_/\__,_/____/_/ /_/ `

	return "\n" + style.Render(ascii) + "\n"
}
