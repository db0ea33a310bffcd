package models

import (
	"strconv"
	"strings"
)

// VideoState описывает, связан ли с метаданными бинарный payload.
type VideoState string

const (
	StateUnbound    VideoState = "UNBOUND"
	StateProcessing VideoState = "PROCESSING"
	StateReady      VideoState = "READY"
	StateFailed     VideoState = "FAILED"
)

// Video метаданные видео. DataURL не хранится, а вычисляется из ID и базового адреса.
type Video struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Duration    int64      `json:"duration"`
	Location    string     `json:"location,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	ContentType string     `json:"contentType"`
	DataURL     string     `json:"dataUrl,omitempty"`
	State       VideoState `json:"state,omitempty"`
}

// VideoStatus ответ на загрузку payload.
type VideoStatus struct {
	State VideoState `json:"state"`
}

// DataURL строит адрес payload: <base>/video/<id>/data.
func DataURL(base string, id int64) string {
	return strings.TrimRight(base, "/") + "/video/" + strconv.FormatInt(id, 10) + "/data"
}

// WithDataURL возвращает копию записи с проставленным DataURL.
func (v Video) WithDataURL(base string) Video {
	v.DataURL = DataURL(base, v.ID)
	return v
}
