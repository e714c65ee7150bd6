package banner

import (
	"queuesweep/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
  ____                        _____                         
 / __ \__  _____  __  _____  / ___/_      _____  ___  ____  
/ / / / / / / _ \/ / / / _ \ \__ \| | /| / / _ \/ _ \/ __ \ 
/ /_/ / /_/ /  __/ /_/ /  __/___/ /| |/ |/ /  __/  __/ /_/ / 
\___\_\__,_/\___/\__,_/\___//____/ |__/|__/\___/\___/ .___/  
                                                   /_/       `

	return "\n" + style.Render(ascii) + "\n"
}
