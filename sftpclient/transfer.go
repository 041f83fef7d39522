package sftpclient

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// Filter chooses which regular files of a listing to download. It receives
// the listing in server order and returns the entries to fetch, in the
// order they should be fetched.
type Filter func(entries []RemoteEntry) []RemoteEntry

// All selects every entry.
func All(entries []RemoteEntry) []RemoteEntry {
	return entries
}

// MatchName selects entries whose name matches a path.Match pattern. A
// malformed pattern matches nothing.
func MatchName(pattern string) Filter {
	return func(entries []RemoteEntry) []RemoteEntry {
		selected := make([]RemoteEntry, 0, len(entries))
		for _, entry := range entries {
			if matched, err := path.Match(pattern, entry.Name); err == nil && matched {
				selected = append(selected, entry)
			}
		}
		return selected
	}
}

// Upload writes localFile to remotePath, creating or replacing it. The
// remote file's mode and times are left to the server.
func (client *Client) Upload(localFile, remotePath string) error {
	return client.WithSession(func(files FileOps) error {
		source, err := client.localFS.Open(localFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", localFile, err)
		}
		defer source.Close()

		written, err := files.Put(source, remotePath, PutOptions{PreserveAttributes: false})
		if err != nil {
			return fmt.Errorf("upload %s to %s: %w", localFile, remotePath, err)
		}
		client.logger.Info("uploaded", "local", localFile, "remote", remotePath, "bytes", written)
		return nil
	})
}

// Write uploads localFile to remotePath.
//
// Deprecated: Use Upload.
func (client *Client) Write(localFile, remotePath string) error {
	return client.Upload(localFile, remotePath)
}

// DownloadAll downloads every regular file in remoteDir into localDir.
func (client *Client) DownloadAll(remoteDir, localDir string) ([]string, error) {
	return client.Download(remoteDir, localDir, All)
}

// Download lists remoteDir, keeps the regular files, applies filter and
// fetches each selected entry to localDir/<name>. It returns the local
// paths in fetch order. If any fetch fails, every local file created by
// this call is removed before the error is returned, so either all
// selected files are present or none are.
func (client *Client) Download(remoteDir, localDir string, filter Filter) ([]string, error) {
	if filter == nil {
		filter = All
	}

	batch := &localBatch{fs: client.localFS}
	err := client.WithSession(func(files FileOps) error {
		entries, err := files.List(remoteDir)
		if err != nil {
			return fmt.Errorf("list %s: %w", remoteDir, err)
		}

		for _, entry := range filter(regularFiles(entries)) {
			if err := client.fetch(files, entry, localDir, batch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		batch.rollback(client)
		return nil, err
	}
	return batch.paths, nil
}

func (client *Client) fetch(files FileOps, entry RemoteEntry, localDir string, batch *localBatch) error {
	if !isPlainName(entry.Name) {
		return fmt.Errorf("remote entry %q is not a plain file name", entry.Name)
	}
	remotePath := entry.Path
	if remotePath == "" {
		remotePath = entry.Name
	}

	localPath := client.localFS.Join(localDir, entry.Name)
	target, err := client.localFS.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	batch.add(localPath)

	written, err := files.Get(remotePath, target)
	if closeErr := target.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", localPath, closeErr)
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", remotePath, err)
	}
	client.logger.Info("downloaded", "remote", remotePath, "local", localPath, "bytes", written)
	return nil
}

func regularFiles(entries []RemoteEntry) []RemoteEntry {
	regular := make([]RemoteEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Regular {
			regular = append(regular, entry)
		}
	}
	return regular
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// localBatch records the local files a download has created so far.
type localBatch struct {
	fs    billy.Filesystem
	paths []string
}

func (batch *localBatch) add(localPath string) {
	batch.paths = append(batch.paths, localPath)
}

// rollback removes every recorded file. Failures are logged; the caller
// still returns the error that caused the rollback.
func (batch *localBatch) rollback(client *Client) {
	for _, localPath := range batch.paths {
		if err := batch.fs.Remove(localPath); err != nil {
			client.logger.Error("rollback failed", "local", localPath, "err", err)
			continue
		}
		client.logger.Debug("rolled back", "local", localPath)
	}
	batch.paths = nil
}
