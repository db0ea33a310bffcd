package resthttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/sir_venger/video_registry/pkg/httperrors"
)

const dataFormField = "data"

// postVideoData принимает payload: multipart-поле data (как у исходного клиента) или сырое тело.
func (s *Server) postVideoData(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	if s.Cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.Cfg.MaxUploadBytes)
	}

	body, err := payloadReader(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	status, err := s.Videos.Bind(r.Context(), id, body)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, status)
}

// payloadReader находит в запросе поток с payload, не буферизуя его.
func payloadReader(r *http.Request) (io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httperrors.ErrBadRequest, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: multipart field %q is missing", httperrors.ErrBadRequest, dataFormField)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", httperrors.ErrBadRequest, err)
		}
		if part.FormName() == dataFormField {
			return part, nil
		}
		_ = part.Close()
	}
}

// getVideoData стримит payload с Content-Type из метаданных.
func (s *Server) getVideoData(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	v, err := s.Videos.Get(r.Context(), s.baseURL(r), id)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	contentType := v.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	tw := &lazyWriter{w: w, contentType: contentType}
	if err = s.Videos.Fetch(r.Context(), id, tw); err != nil {
		if !tw.wrote {
			httperrors.Write(w, err)
		}
		// после первых байт статус уже отправлен, остаётся только оборвать ответ
		return
	}
	if !tw.wrote {
		tw.writeHeader()
	}
}

// lazyWriter откладывает отправку заголовков до первых байт payload,
// чтобы ошибку до начала передачи можно было отдать нормальным статусом.
type lazyWriter struct {
	w           http.ResponseWriter
	contentType string
	wrote       bool
}

func (l *lazyWriter) writeHeader() {
	l.wrote = true
	l.w.Header().Set("Content-Type", l.contentType)
	l.w.WriteHeader(http.StatusOK)
}

func (l *lazyWriter) Write(p []byte) (int, error) {
	if !l.wrote {
		l.writeHeader()
	}
	return l.w.Write(p)
}

var _ io.Writer = (*lazyWriter)(nil)
