package common

import (
	"fmt"
	"sort"
	"strings"

	"cex-withdraw-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a title framed by separators, preceded by a blank line
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a closing message framed by separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintOrganizationHeader opens the box for one organization in a report
func PrintOrganizationHeader(org models.Organization, lineCount int) {
	fmt.Printf("\n┌─ Organization: %s (%s)\n", org.Name, org.Slug)
	fmt.Printf("│  ID: %s\n", org.Id)
	fmt.Printf("│  Rows: %d\n", lineCount)
	fmt.Println("├" + strings.Repeat("─", DefaultWidth-2))
}

// BoxPrefix returns the box-drawing prefix for a list item
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// PrintBalances writes one boxed line per balance. Exchange names go through
// displayName.
func PrintBalances(balances []models.Balance, displayName func(string) string) {
	for i, b := range balances {
		fmt.Printf("%s %-10s %-16s free: %20s  locked: %20s\n",
			BoxPrefix(i == len(balances)-1),
			b.Coin,
			displayName(b.Exchange),
			b.Free.String(),
			b.Locked.String())
	}
}

// PrintExchangeErrors lists per-exchange failures under a report section
func PrintExchangeErrors(errs map[string]string, displayName func(string) string) {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("│  ! %s: %s\n", displayName(name), errs[name])
	}
}
