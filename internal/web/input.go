package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/backoffice/internal/core"
)

// errNoFile is matched by the REQ002 pattern in core.MapError.
var errNoFile = errors.New("no file provided")

// upload is the document posted to an import, preview or restore endpoint.
type upload struct {
	Name      string
	Data      []byte
	Format    core.Format
	Delimiter string
}

// readUpload reads the request document, either a multipart "file" field or
// the raw request body, capped at the configured maximum size.
//
// The format comes from the "format" parameter when given, otherwise it is
// inferred from the file name, the content type and the content itself.
// The delimiter comes from the "delimiter" parameter, or a tab for .tsv files.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	up := &upload{}
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return nil, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, errNoFile
		}
		defer file.Close()

		if up.Data, err = io.ReadAll(file); err != nil {
			return nil, err
		}
		up.Name = header.Filename
		contentType = header.Header.Get("Content-Type")
	} else {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		up.Data = data
		up.Name = r.URL.Query().Get("filename")
	}

	if len(up.Data) == 0 {
		return nil, errNoFile
	}

	if name := r.FormValue("format"); name != "" {
		format, err := core.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		up.Format = format
		if strings.EqualFold(name, "tsv") {
			up.Delimiter = "\t"
		}
	} else {
		up.Format = core.DetectFormat(up.Name, contentType, up.Data)
	}

	if d := r.FormValue("delimiter"); d != "" {
		up.Delimiter = d
	} else if up.Delimiter == "" {
		up.Delimiter = core.DefaultDelimiter(up.Name)
	}

	return up, nil
}
