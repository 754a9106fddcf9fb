package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SkyDependence/tgDrive/models"
)

type DispatchInput struct {
	Destination string
	Overwrite   string
	HostPrefix  string
	UserID      uint
}

type ProtocolResponse struct {
	Status      int
	ContentType string
	Body        string
}

// WebDavService 目录协议响应器。真实动词由调用方从覆盖请求头中
// 解析后传入，这里只负责按动词语义产出状态码和 DAV XML。
type WebDavService interface {
	Dispatch(ctx context.Context, method, path string, in DispatchInput) ProtocolResponse
}

type webDavService struct {
	fs WebDavFileService
}

func NewWebDavService(fs WebDavFileService) WebDavService {
	return &webDavService{fs: fs}
}

const davContentType = "application/xml; charset=utf-8"

func (s *webDavService) Dispatch(ctx context.Context, method, path string, in DispatchInput) ProtocolResponse {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	switch method {
	case "PROPFIND":
		return s.propfind(ctx, path)
	case "MKCOL":
		return s.mkcol(ctx, path, in.UserID)
	case "MOVE":
		return s.relocate(ctx, path, in, true)
	case "COPY":
		return s.relocate(ctx, path, in, false)
	case "DELETE":
		return s.delete(ctx, path)
	case "PROPPATCH":
		return s.proppatch(path)
	default:
		return ProtocolResponse{Status: http.StatusNotImplemented}
	}
}

func (s *webDavService) propfind(ctx context.Context, path string) ProtocolResponse {
	var self models.FileEntry
	isRoot := path == "/"

	if !isRoot {
		entry, err := s.resolve(ctx, path)
		if err != nil {
			return ProtocolResponse{Status: StatusOf(err)}
		}
		self = entry
		path = self.Path()
	}

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<D:multistatus xmlns:D="DAV:">` + "\n")

	if isRoot {
		writeDirResponse(&sb, "/webdav/", "", time.Now())
	} else if self.IsDir {
		writeDirResponse(&sb, "/webdav"+self.Path(), self.FileName, time.Unix(self.UploadTime, 0))
	} else {
		writeFileResponse(&sb, "/webdav"+self.Path(), &self)
		sb.WriteString(`</D:multistatus>`)
		return ProtocolResponse{Status: http.StatusMultiStatus, ContentType: davContentType, Body: sb.String()}
	}

	listPath := path
	if isRoot {
		listPath = "/"
	}
	children, err := s.fs.ListFiles(ctx, listPath)
	if err != nil {
		return ProtocolResponse{Status: StatusOf(err)}
	}
	for i := range children {
		child := &children[i]
		if child.IsDir {
			writeDirResponse(&sb, "/webdav"+child.Path(), child.FileName, time.Unix(child.UploadTime, 0))
		} else {
			writeFileResponse(&sb, "/webdav"+child.Path(), child)
		}
	}

	sb.WriteString(`</D:multistatus>`)
	return ProtocolResponse{Status: http.StatusMultiStatus, ContentType: davContentType, Body: sb.String()}
}

// resolve 目录条目带结尾斜杠入库，客户端发来的路径往往没有，补一次重查
func (s *webDavService) resolve(ctx context.Context, path string) (models.FileEntry, error) {
	entry, err := s.fs.GetEntry(ctx, path)
	if err == nil {
		return entry, nil
	}
	if !strings.HasSuffix(path, "/") {
		if entry, retryErr := s.fs.GetEntry(ctx, path+"/"); retryErr == nil {
			return entry, nil
		}
	}
	return models.FileEntry{}, err
}

func writeDirResponse(sb *strings.Builder, href, name string, modified time.Time) {
	sb.WriteString("<D:response>\n")
	fmt.Fprintf(sb, "<D:href>%s</D:href>\n", escapeXML(href))
	sb.WriteString("<D:propstat>\n<D:prop>\n")
	fmt.Fprintf(sb, "<D:displayname>%s</D:displayname>\n", escapeXML(name))
	sb.WriteString("<D:resourcetype><D:collection/></D:resourcetype>\n")
	fmt.Fprintf(sb, "<D:getlastmodified>%s</D:getlastmodified>\n", modified.UTC().Format(http.TimeFormat))
	sb.WriteString("</D:prop>\n<D:status>HTTP/1.1 200 OK</D:status>\n</D:propstat>\n")
	sb.WriteString("</D:response>\n")
}

func writeFileResponse(sb *strings.Builder, href string, entry *models.FileEntry) {
	sb.WriteString("<D:response>\n")
	fmt.Fprintf(sb, "<D:href>%s</D:href>\n", escapeXML(href))
	sb.WriteString("<D:propstat>\n<D:prop>\n")
	fmt.Fprintf(sb, "<D:displayname>%s</D:displayname>\n", escapeXML(entry.FileName))
	sb.WriteString("<D:resourcetype/>\n")
	fmt.Fprintf(sb, "<D:getcontentlength>%d</D:getcontentlength>\n", entry.FullSize)
	lastModified := time.Unix(entry.UploadTime, 0).UTC().Format(http.TimeFormat)
	fmt.Fprintf(sb, "<D:getlastmodified>%s</D:getlastmodified>\n", lastModified)
	sb.WriteString("</D:prop>\n<D:status>HTTP/1.1 200 OK</D:status>\n</D:propstat>\n")
	sb.WriteString("</D:response>\n")
}

func (s *webDavService) mkcol(ctx context.Context, path string, userID uint) ProtocolResponse {
	if err := s.fs.MkCol(ctx, path, userID); err != nil {
		return ProtocolResponse{Status: StatusOf(err)}
	}
	return ProtocolResponse{Status: http.StatusCreated}
}

func (s *webDavService) relocate(ctx context.Context, path string, in DispatchInput, move bool) ProtocolResponse {
	if in.Destination == "" {
		return ProtocolResponse{Status: http.StatusBadRequest}
	}

	target := resolveDestination(in.Destination, in.HostPrefix)
	if target == "" {
		return ProtocolResponse{Status: http.StatusBadRequest}
	}

	source := path
	if entry, err := s.resolve(ctx, source); err == nil && entry.IsDir {
		source = entry.Path()
		if !strings.HasSuffix(target, "/") {
			target += "/"
		}
	}

	// Overwrite 请求头缺省按 T 处理
	overwrite := in.Overwrite != "F"

	var err error
	if move {
		err = s.fs.Move(ctx, source, target, overwrite)
	} else {
		err = s.fs.Copy(ctx, source, target, overwrite)
	}
	if err != nil {
		return ProtocolResponse{Status: StatusOf(err)}
	}
	return ProtocolResponse{Status: http.StatusNoContent}
}

// resolveDestination 把 Destination 请求头还原为库内路径：
// 去掉 scheme://host[:port]/webdav 前缀并做 URL 解码
func resolveDestination(destination, hostPrefix string) string {
	target := destination
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	target = strings.TrimPrefix(target, hostPrefix+"/webdav")
	target = strings.TrimPrefix(target, "/webdav")
	if !strings.HasPrefix(target, "/") {
		return ""
	}
	return target
}

func (s *webDavService) delete(ctx context.Context, path string) ProtocolResponse {
	entry, err := s.resolve(ctx, path)
	if err != nil {
		return ProtocolResponse{Status: StatusOf(err)}
	}
	if err := s.fs.Delete(ctx, entry.Path()); err != nil {
		return ProtocolResponse{Status: StatusOf(err)}
	}
	return ProtocolResponse{Status: http.StatusNoContent}
}

// proppatch 不持久化任何属性，返回合成的成功响应让客户端继续
func (s *webDavService) proppatch(path string) ProtocolResponse {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<D:multistatus xmlns:D="DAV:">` + "\n")
	sb.WriteString("<D:response>\n")
	fmt.Fprintf(&sb, "<D:href>%s</D:href>\n", escapeXML("/webdav"+path))
	sb.WriteString("<D:propstat>\n<D:prop/>\n<D:status>HTTP/1.1 200 OK</D:status>\n</D:propstat>\n")
	sb.WriteString("</D:response>\n</D:multistatus>")
	return ProtocolResponse{Status: http.StatusMultiStatus, ContentType: davContentType, Body: sb.String()}
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
