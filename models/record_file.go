package models

import "encoding/json"

// RecordFile 大文件清单。超过单分块大小的文件在 Telegram 上存为若干分块，
// 再额外上传一个记录文件，按顺序列出所有分块的 fileId。
// 下载端通过 recordFile 标记区分清单和普通文件。
type RecordFile struct {
	FileName   string   `json:"fileName"`
	FileSize   int64    `json:"fileSize"`
	FileIDs    []string `json:"fileIds"`
	RecordFile bool     `json:"recordFile"`
}

func EncodeRecordFile(r RecordFile) ([]byte, error) {
	r.RecordFile = true
	return json.MarshalIndent(r, "", "  ")
}

// DecodeRecordFile 尝试把一段字节解析为记录文件，第二个返回值表示是否命中
func DecodeRecordFile(data []byte) (RecordFile, bool) {
	var r RecordFile
	if err := json.Unmarshal(data, &r); err != nil {
		return RecordFile{}, false
	}
	if !r.RecordFile || len(r.FileIDs) == 0 {
		return RecordFile{}, false
	}
	return r, true
}
