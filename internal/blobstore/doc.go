// Package blobstore содержит бэкенды хранения payload, которыми пользуется реестр:
//   - fs: локальный каталог, запись через временный файл и атомарный rename;
//   - nodes: набор storage-нод (cmd/storage), выбор ноды через Router;
//   - s3: бакет S3 или совместимого хранилища.
//
// Все бэкенды реализуют Store(ctx, id, r) и Retrieve(ctx, id, w).
package blobstore
