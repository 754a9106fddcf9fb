package services

import (
	"context"
	"reflect"
	"testing"
)

func newTestFileService() (WebDavFileService, *fakeEntryRepo) {
	setupTestConfig()
	entries := newFakeEntryRepo()
	return NewWebDavFileService(fakeTxManager{}, entries), entries
}

func TestListFilesReturnsImmediateChildrenOnly(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addDir("/docs/")
	entries.addFile("/docs/a.txt", "tg-1", 10)
	entries.addDir("/docs/sub/")
	entries.addFile("/docs/sub/deep.txt", "tg-2", 20)
	entries.addFile("/root.txt", "tg-3", 30)

	children, err := svc.ListFiles(context.Background(), "/docs/")
	if err != nil {
		t.Fatalf("ListFiles 失败: %v", err)
	}

	var paths []string
	for _, c := range children {
		paths = append(paths, c.Path())
	}
	want := []string{"/docs/a.txt", "/docs/sub/"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("期望 %v, 实际 %v", want, paths)
	}
}

func TestListFilesRoot(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addFile("/root.txt", "tg-1", 10)
	entries.addDir("/docs/")
	entries.addFile("/docs/a.txt", "tg-2", 20)

	children, err := svc.ListFiles(context.Background(), "/")
	if err != nil {
		t.Fatalf("ListFiles 失败: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("期望根目录下 2 个条目, 实际 %d", len(children))
	}
}

func TestMkColCreatesDirectory(t *testing.T) {
	svc, entries := newTestFileService()

	if err := svc.MkCol(context.Background(), "/photos", 1); err != nil {
		t.Fatalf("MkCol 失败: %v", err)
	}

	entry, err := entries.GetByWebdavPath(context.Background(), nil, "/photos/")
	if err != nil {
		t.Fatalf("目录未落库: %v", err)
	}
	if !entry.IsDir || entry.FileID != "dir" || entry.FileName != "photos" {
		t.Fatalf("目录条目不符: %+v", entry)
	}
}

func TestMkColExistingDirectory(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addDir("/photos/")

	err := svc.MkCol(context.Background(), "/photos/", 1)
	assertStatus(t, err, 405)
}

func TestMoveFile(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addFile("/a.txt", "tg-1", 10)
	entries.addFile("/a.txt.bak", "tg-2", 10)

	if err := svc.Move(context.Background(), "/a.txt", "/b.txt", true); err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	want := []string{"/a.txt.bak", "/b.txt"}
	if got := entries.paths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}

	moved, err := entries.GetByWebdavPath(context.Background(), nil, "/b.txt")
	if err != nil {
		t.Fatalf("目标条目缺失: %v", err)
	}
	if moved.FileID != "tg-1" || moved.FileName != "b.txt" {
		t.Fatalf("移动后条目不符: %+v", moved)
	}
}

func TestMoveDirectorySubtree(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addDir("/docs/")
	entries.addFile("/docs/a.txt", "tg-1", 10)
	entries.addDir("/docs/sub/")
	entries.addFile("/docs/sub/deep.txt", "tg-2", 20)

	if err := svc.Move(context.Background(), "/docs/", "/archive/", true); err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	want := []string{"/archive/", "/archive/a.txt", "/archive/sub/", "/archive/sub/deep.txt"}
	if got := entries.paths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}
}

func TestMoveTargetExistsWithoutOverwrite(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addFile("/a.txt", "tg-1", 10)
	entries.addFile("/b.txt", "tg-2", 20)

	err := svc.Move(context.Background(), "/a.txt", "/b.txt", false)
	assertStatus(t, err, 409)
}

func TestMoveTargetExistsWithOverwrite(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addFile("/a.txt", "tg-1", 10)
	entries.addFile("/b.txt", "tg-2", 20)

	if err := svc.Move(context.Background(), "/a.txt", "/b.txt", true); err != nil {
		t.Fatalf("Move 失败: %v", err)
	}

	entry, err := entries.GetByWebdavPath(context.Background(), nil, "/b.txt")
	if err != nil {
		t.Fatalf("目标条目缺失: %v", err)
	}
	if entry.FileID != "tg-1" {
		t.Fatalf("目标应被源覆盖: %+v", entry)
	}
	if got := entries.paths(); len(got) != 1 {
		t.Fatalf("覆盖后应只剩 1 个条目: %v", got)
	}
}

func TestMoveMissingSource(t *testing.T) {
	svc, _ := newTestFileService()
	err := svc.Move(context.Background(), "/missing.txt", "/b.txt", true)
	assertStatus(t, err, 400)
}

func TestCopyDirectoryKeepsSource(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addDir("/docs/")
	entries.addFile("/docs/a.txt", "tg-1", 10)

	if err := svc.Copy(context.Background(), "/docs/", "/backup/", true); err != nil {
		t.Fatalf("Copy 失败: %v", err)
	}

	want := []string{"/backup/", "/backup/a.txt", "/docs/", "/docs/a.txt"}
	if got := entries.paths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}
}

func TestDeleteDirectoryCascades(t *testing.T) {
	svc, entries := newTestFileService()
	entries.addDir("/docs/")
	entries.addFile("/docs/a.txt", "tg-1", 10)
	entries.addFile("/docs2.txt", "tg-2", 20)

	if err := svc.Delete(context.Background(), "/docs/"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}

	want := []string{"/docs2.txt"}
	if got := entries.paths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v, 实际 %v", want, got)
	}
}

func TestDeleteMissingPath(t *testing.T) {
	svc, _ := newTestFileService()
	err := svc.Delete(context.Background(), "/missing.txt")
	assertStatus(t, err, 404)
}
