// Package models moves the suite's large binary model artifacts between the local
// models directory and the remote model host.
//
// Downloads are plain HTTP(S) GETs of archives published under the host's base URL,
// extracted in place. Uploads package a model directory as .tar.gz and copy it to the
// host with scp, so the user's own ssh configuration and agent are used.
package models

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"suite-installer/internal/logger"
	"suite-installer/internal/manifest"
	"suite-installer/internal/shell"
)

// Store knows where models live locally and remotely.
type Store struct {
	Dir       string // local models directory
	BaseURL   string // download prefix
	Host      string // upload ssh host
	RemoteDir string // upload directory on Host

	HTTP  *http.Client
	Shell shell.Runner
	Log   *logger.Logger
}

// NewStore builds a Store from the manifest's models section.
func NewStore(m *manifest.Manifest, sh shell.Runner, log *logger.Logger) *Store {
	return &Store{
		Dir:       m.ModelDir(),
		BaseURL:   m.Models.BaseURL,
		Host:      m.Models.Host,
		RemoteDir: m.Models.RemoteDir,
		HTTP:      http.DefaultClient,
		Shell:     sh,
		Log:       log,
	}
}

// Fetch downloads the archive into the models directory and verifies its checksum
// when one is configured. It returns the local archive path.
func (s *Store) Fetch(ctx context.Context, archive manifest.ModelArchive) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("no model base URL configured")
	}
	url := strings.TrimRight(s.BaseURL, "/") + "/" + archive.File
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory %s: %w", s.Dir, err)
	}
	destPath := filepath.Join(s.Dir, filepath.Base(archive.File))

	sum, err := s.downloadFile(ctx, url, destPath)
	if err != nil {
		return "", err
	}
	if archive.SHA256 != "" && !strings.EqualFold(sum, archive.SHA256) {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("checksum mismatch for %s: got %s, want %s", archive.File, sum, archive.SHA256)
	}
	return destPath, nil
}

// downloadFile saves url to destPath and returns the hex SHA-256 of the content.
func (s *Store) downloadFile(ctx context.Context, url, destPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.Log.Debug("Failed to close response body: %v", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s failed: HTTP status %d", url, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), resp.Body); err != nil {
		out.Close()
		_ = os.Remove(destPath)
		return "", fmt.Errorf("failed to write response to file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", destPath, err)
	}
	s.Log.Debug("Downloaded %s to %s", url, destPath)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Extract unpacks a fetched archive into the models directory and removes the archive.
func (s *Store) Extract(archivePath string) (string, error) {
	extracted, err := ExtractArchive(archivePath, s.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}
	if err := os.Remove(archivePath); err != nil {
		s.Log.Debug("Could not remove %s: %v", archivePath, err)
	}
	return extracted, nil
}

// Upload copies archivePath to login@Host:RemoteDir with scp.
func (s *Store) Upload(ctx context.Context, login, archivePath string) (int, string) {
	target := fmt.Sprintf("%s@%s:%s/", login, s.Host, strings.TrimRight(s.RemoteDir, "/"))
	return s.Shell.Run(ctx, shell.Command{Name: "scp", Args: []string{"-q", archivePath, target}})
}

// Pack writes srcDir as a gzip-compressed tarball to destFile. Entries are stored
// under srcDir's base name so the archive extracts into a single directory.
func Pack(srcDir, destFile string) error {
	srcDir = filepath.Clean(srcDir)
	base := filepath.Base(srcDir)

	out, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destFile, err)
	}
	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(base, rel))
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})

	// Close in order even after a walk error so the file handle is released.
	twErr := tw.Close()
	gwErr := gw.Close()
	outErr := out.Close()
	for _, err := range []error{walkErr, twErr, gwErr, outErr} {
		if err != nil {
			return fmt.Errorf("failed to pack %s: %w", srcDir, err)
		}
	}
	return nil
}
