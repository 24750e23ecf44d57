package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fermyon/spin-companion/pkg/spin"
)

var cleanDryRun bool

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove old spin releases from the tools directory",
		Long: `Remove every downloaded spin release except the one currently pinned.

A custom_program_path is never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cleanStaleReleases(newApp(settings).installer, cleanDryRun)
		},
	}

	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show what would be deleted without actually deleting")

	return cleanCmd
}

// cleanStaleReleases keeps only the pinned release
func cleanStaleReleases(installer *spin.Installer, dryRun bool) error {
	stale, err := installer.StaleVersions()
	if err != nil {
		return err
	}

	if len(stale) == 0 {
		fmt.Println("Nothing to clean - only the current release is installed")
		return nil
	}

	// Show what will be deleted
	fmt.Printf("Found %d old release(s) to clean up:\n", len(stale))
	for _, v := range stale {
		fmt.Printf("  - %s\n", v.Original())
	}
	fmt.Printf("\nKeeping %s\n", installer.Version)

	if dryRun {
		color.Cyan("\nDry run mode - no files were deleted")
		return nil
	}

	deletedCount := 0
	for _, v := range stale {
		if err := os.RemoveAll(installer.VersionDir(v)); err != nil {
			color.Red("✗ Failed to delete %s: %v", v.Original(), err)
			continue
		}
		deletedCount++
	}

	color.Green("\n✓ Cleaned up %d old release(s)", deletedCount)
	return nil
}
