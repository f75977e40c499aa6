package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/application/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <institute-id> <file>",
	Short: "Copy a file into the public asset directory and register it",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpload,
}

var (
	uploadFolder  string
	uploadDir     string
	uploadBaseURL string
)

func init() {
	uploadCmd.Flags().StringVar(&uploadFolder, "folder", "", "library folder")
	uploadCmd.Flags().StringVar(&uploadDir, "public-dir", "public", "directory served at --base-url")
	uploadCmd.Flags().StringVar(&uploadBaseURL, "base-url", "http://localhost:8080/public", "URL prefix of --public-dir")
}

func runUpload(cmd *cobra.Command, args []string) error {
	instituteID, src := args[0], args[1]
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(err, "stat upload")
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", src)
	}
	mime, err := mimetype.DetectFile(src)
	if err != nil {
		return errors.Wrap(err, "detect mime type")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name := filepath.Base(src)
	stored := newID() + filepath.Ext(name)
	rel := path.Join(instituteID, uploadFolder, stored)

	errOut := cmd.ErrOrStderr()
	ticker := upload.NewTicker(upload.TickerConfig{
		OnChange: func(p int) { fmt.Fprintf(errOut, "\ruploading %s %3d%%", name, p) },
	})
	ticker.Start(cmd.Context())
	defer ticker.Stop()

	if err := copyFile(src, filepath.Join(uploadDir, filepath.FromSlash(rel))); err != nil {
		ticker.Stop()
		<-ticker.Done()
		fmt.Fprintln(errOut)
		return err
	}
	ticker.Complete()
	fmt.Fprintln(errOut)

	fileURL, err := url.JoinPath(uploadBaseURL, rel)
	if err != nil {
		return errors.Wrap(err, "build asset url")
	}
	as, err := orchestrators.ExecuteRegisterAsset(cmd.Context(), orchestrators.RegisterAssetInput{
		InstituteID: instituteID,
		Folder:      uploadFolder,
		FileName:    name,
		URL:         fileURL,
		MimeType:    mime.String(),
		Size:        info.Size(),
	}, orchestrators.RegisterAssetDeps{AssetStore: a.assets, GenerateID: newID, Now: now})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "registered %s as %s (%s)\n", as.FileName, as.ID, as.URL)
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "create asset directory")
	}
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "open upload")
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create asset file")
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err, "copy upload")
	}
	return errors.Wrap(out.Close(), "close asset file")
}
