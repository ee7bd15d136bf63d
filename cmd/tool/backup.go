package tool

import (
	"os"

	"github.com/klauspost/compress/snappy"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/radpro/doselog/utils/log"
)

var (
	backupCmd = &cobra.Command{
		Use:     "backup <file>",
		Short:   "Writes a snappy compressed copy of a flash image",
		Example: "doselog tool backup --image flash.img flash.img.sz",
		Args:    cobra.ExactArgs(1),
		RunE:    executeBackup,
	}
	restoreCmd = &cobra.Command{
		Use:     "restore <file>",
		Short:   "Replaces a flash image with a backup",
		Example: "doselog tool restore --image flash.img flash.img.sz",
		Args:    cobra.ExactArgs(1),
		RunE:    executeRestore,
	}
)

func executeBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	n, err := backup(cfg.FlashImage, args[0], cfg.FlashSize)
	if err != nil {
		return err
	}
	log.Info("backed up %s to %s (%d bytes compressed)", cfg.FlashImage, args[0], n)
	return nil
}

func executeRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if err = restore(args[0], cfg.FlashImage, cfg.FlashSize); err != nil {
		return err
	}
	log.Info("restored %s from %s", cfg.FlashImage, args[0])
	return nil
}

// backup compresses the image at src into dst and returns the compressed
// size.
func backup(src, dst string, size int) (int, error) {
	image, err := os.ReadFile(src)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read flash image")
	}
	if len(image) != size {
		return 0, errors.Errorf("flash image %s is %d bytes, expected %d", src, len(image), size)
	}
	comp := snappy.Encode(nil, image)
	if err = os.WriteFile(dst, comp, 0o644); err != nil {
		return 0, errors.Wrap(err, "failed to write backup")
	}
	return len(comp), nil
}

// restore decompresses src over the image at dst. A backup of another
// flash geometry is refused.
func restore(src, dst string, size int) error {
	comp, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrap(err, "failed to read backup")
	}
	n, err := snappy.DecodedLen(comp)
	if err != nil {
		return errors.Wrap(err, "corrupt backup")
	}
	if n != size {
		return errors.Errorf("backup holds %d bytes, the flash is %d", n, size)
	}
	image, err := snappy.Decode(nil, comp)
	if err != nil {
		return errors.Wrap(err, "corrupt backup")
	}
	return errors.Wrap(os.WriteFile(dst, image, 0o644), "failed to write flash image")
}
