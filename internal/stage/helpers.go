package stage

import (
	"os"

	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
)

// EnsureWorkDir creates and returns the item's staging directory.
// On failure it returns a services error suitable for stage Execute methods.
func EnsureWorkDir(item *queue.Item, base string) (string, error) {
	root := item.WorkRoot(base)
	if root == "" {
		return "", services.Wrap(
			services.ErrConfiguration, "stage", "ensure work dir",
			"staging directory is not configured", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", services.Wrap(
			services.ErrConfiguration, "stage", "ensure work dir",
			"cannot create staging directory "+root, err)
	}
	return root, nil
}

// RequireFile verifies that a stage input exists on disk before work starts.
func RequireFile(stageName, path string) error {
	if path == "" {
		return services.Wrap(
			services.ErrValidation, stageName, "check input",
			"input file path is empty", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(
			services.ErrNotFound, stageName, "check input",
			"input file missing: "+path, err)
	}
	if info.IsDir() {
		return services.Wrap(
			services.ErrValidation, stageName, "check input",
			"input path is a directory: "+path, nil)
	}
	return nil
}
