// Package storagehttp реализует Storage API: HTTP-интерфейс storage-ноды, принимающей и
// выдающей payload видео поверх локального диска. Основные эндпоинты:
//   - PUT /blobs/{id}: принимает payload, проверяет размер/хеш (заголовок или трейлер) и публикует атомарно.
//   - GET /blobs/{id}: отдаёт сохранённый payload как application/octet-stream.
//   - HEAD /blobs/{id}: возвращает размер и SHA-256 через служебные заголовки.
//   - POST /admin/gc: инициирует удаление брошенных временных файлов (ручной GC).
//   - GET /health: отдаёт занятый объём каталога данных для health-check'ов.
package storagehttp
