package models

// DirFileID 是目录条目的 file_id 哨兵值，目录没有对应的 Telegram 文件
const DirFileID = "dir"

// FileEntry 虚拟文件系统条目，文件和目录共用一张表。
// 层级关系不落库，完全由 webdav_path 的前缀推导。
type FileEntry struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID      string  `gorm:"type:varchar(128);not null;index" json:"file_id"`
	FileName    string  `gorm:"type:varchar(255);not null" json:"file_name"`
	DownloadURL string  `gorm:"type:varchar(500)" json:"download_url"`
	Size        string  `gorm:"type:varchar(32)" json:"size"`
	FullSize    int64   `gorm:"not null" json:"full_size"`
	UploadTime  int64   `gorm:"not null;index" json:"upload_time"`
	WebdavPath  *string `gorm:"type:varchar(768);uniqueIndex" json:"webdav_path"`
	IsDir       bool    `gorm:"default:false" json:"is_dir"`
	UserID      uint    `gorm:"index" json:"user_id"`
	IsPublic    bool    `gorm:"default:false" json:"is_public"`
}

func (e *FileEntry) Path() string {
	if e.WebdavPath == nil {
		return ""
	}
	return *e.WebdavPath
}
