package outwriter

import (
	"os"

	"github.com/huangsam/riskscan/internal/contract"
	"golang.org/x/term"
)

// Bounds for the repository column.
const (
	minRepoWidth = 15
	maxRepoWidth = 50
)

// GetMaxTableRepoWidth calculates the maximum width for repository names in
// table output based on terminal width and the fixed columns around it.
func GetMaxTableRepoWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Score + Level + Velocity + Gini + Top1 + Contrib + Language
	// + Registry + Package + Popularity, with borders and padding.
	baseWidth := 110

	available := termWidth - baseWidth
	if available < minRepoWidth {
		return minRepoWidth
	}
	if available > maxRepoWidth {
		return maxRepoWidth
	}
	return available
}
