// Package storageproto описывает протокол HTTP-взаимодействия реестра со storage-нодами.
package storageproto

// Параметры REST-протокола взаимодействия со стораджами.
const (
	BlobsPathFormat = "%s/blobs/%d"
	HealthPath      = "/health"
	HeaderChecksum  = "X-Checksum-Sha256"
	HeaderBlobSize  = "X-Size"
	// HeaderStoredAt момент публикации blob'а на ноде, RFC 3339 с наносекундами.
	HeaderStoredAt  = "X-Stored-At"
)

// Health тело ответа GET /health.
type Health struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
}
