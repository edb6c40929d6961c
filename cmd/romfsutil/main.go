// Command romfsutil is the host-side tool for the romfs image format:
// mkfs, ls, cpto and cpfrom, the external collaborator spec.md §6
// describes as sitting outside the core and talking to it only through
// the programmatic filesystem API.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/aligator/romfs"
	"github.com/aligator/romfs/flashsim"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "romfsutil",
		Short: "Build and inspect romfs flash images from the host",
	}
	root.AddCommand(newMkfsCmd(), newLsCmd(), newCpToCmd(), newCpFromCmd())
	return root
}

func newMkfsCmd() *cobra.Command {
	var image string
	var sectors int
	var dir string

	cmd := &cobra.Command{
		Use:   "mkfs",
		Short: "Format a new image, optionally seeding it from a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := flashsim.OpenFile(image, sectors)
			if err != nil {
				return err
			}
			defer dev.Close()

			fs := romfs.New(dev, sectors)
			if err := fs.Mkfs(); err != nil {
				return err
			}
			if err := fs.Mount(); err != nil {
				return err
			}
			defer fs.Umount()

			if dir == "" {
				return nil
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				if err := copyInto(fs, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
					return fmt.Errorf("copying %s: %w", entry.Name(), err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "path to the image file")
	cmd.Flags().IntVar(&sectors, "sectors", 768, "number of sectors in the new image")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of files to seed the image with")
	cmd.MarkFlagRequired("image")
	return cmd
}

func newLsCmd() *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the files in an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dev, err := mountExisting(image)
			if err != nil {
				return err
			}
			defer dev.Close()
			defer fs.Umount()

			tbl := table.New("name", "size", "start sector")
			cur := fs.OpenDir()
			for {
				d, err := fs.ReadDir(cur)
				if err != nil {
					return err
				}
				if d == nil {
					break
				}
				tbl.AddRow(d.Name, d.Size, d.StartSector)
			}
			tbl.WithWriter(cmd.OutOrStdout())
			tbl.Print()
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "path to the image file")
	cmd.MarkFlagRequired("image")
	return cmd
}

func newCpToCmd() *cobra.Command {
	var image, file string

	cmd := &cobra.Command{
		Use:   "cpto",
		Short: "Copy a local file into an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dev, err := mountExisting(image)
			if err != nil {
				return err
			}
			defer dev.Close()
			defer fs.Umount()

			return copyInto(fs, file, filepath.Base(file))
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "path to the image file")
	cmd.Flags().StringVar(&file, "file", "", "local file to copy in")
	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newCpFromCmd() *cobra.Command {
	var image, file string

	cmd := &cobra.Command{
		Use:   "cpfrom",
		Short: "Copy a file out of an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dev, err := mountExisting(image)
			if err != nil {
				return err
			}
			defer dev.Close()
			defer fs.Umount()

			name := filepath.Base(file)
			src, err := fs.Open(name, "r")
			if err != nil {
				return err
			}
			defer src.Close()

			out, err := os.Create(file)
			if err != nil {
				return err
			}
			defer out.Close()

			_, err = io.Copy(out, src)
			return err
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "path to the image file")
	cmd.Flags().StringVar(&file, "file", "", "destination path on the host")
	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("file")
	return cmd
}

func copyInto(fs *romfs.Filesystem, localPath, romName string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer in.Close()

	dst, err := fs.Open(romName, "w")
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, in)
	return err
}

func mountExisting(image string) (*romfs.Filesystem, *flashsim.File, error) {
	info, err := os.Stat(image)
	if err != nil {
		return nil, nil, err
	}
	sectors := int(info.Size() / romfs.SectorSize)

	dev, err := flashsim.OpenFile(image, sectors)
	if err != nil {
		return nil, nil, err
	}

	fs := romfs.New(dev, sectors)
	if err := fs.Mount(); err != nil {
		dev.Close()
		return nil, nil, err
	}
	return fs, dev, nil
}
