package services

import "github.com/SkyDependence/tgDrive/repositories"

type Container struct {
	Resumable ResumableUploadService
	WebDavFS  WebDavFileService
	WebDav    WebDavService
	Download  DownloadService
	Cleanup   CleanupService
}

func NewContainer(repos *repositories.Container, blobs BlobStore, notifier ProgressNotifier) *Container {
	resumable := NewResumableUploadService(
		repos.TxManager,
		repos.UploadTasks,
		repos.FileEntries,
		repos.ChunkCache,
		blobs,
		notifier,
	)
	fs := NewWebDavFileService(repos.TxManager, repos.FileEntries)

	return &Container{
		Resumable: resumable,
		WebDavFS:  fs,
		WebDav:    NewWebDavService(fs),
		Download:  NewDownloadService(repos.FileEntries, blobs),
		Cleanup:   NewCleanupService(resumable),
	}
}
