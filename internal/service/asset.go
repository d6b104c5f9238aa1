package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"muebles-catalog/internal/events"
	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"
	"muebles-catalog/internal/storage"
	"muebles-catalog/internal/utils"

	"github.com/gabriel-vasile/mimetype"
)

type AssetKind string

const (
	AssetImagen   AssetKind = "imagen"
	AssetObjeto3D AssetKind = "objeto3D"
)

func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(s) {
	case AssetImagen, AssetObjeto3D:
		return AssetKind(s), nil
	}
	return "", invalidField("kind", "debe ser imagen u objeto3D")
}

// AssetUpload is one uploaded file. Content is read twice: once to sniff the
// type and once to upload.
type AssetUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

type assetType struct {
	contentType string
	ext         string
	formato     string
}

var imageTypes = map[string]assetType{
	"image/jpeg": {"image/jpeg", ".jpg", ""},
	"image/png":  {"image/png", ".png", ""},
	"image/webp": {"image/webp", ".webp", ""},
}

// detectAsset sniffs the content. glTF JSON and Wavefront OBJ have no magic
// bytes, so those two are recognised by the file extension on top of a text
// detection.
func detectAsset(kind AssetKind, filename string, content io.ReadSeeker) (assetType, error) {
	mt, err := mimetype.DetectReader(content)
	if err != nil {
		return assetType{}, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return assetType{}, fmt.Errorf("rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch kind {
	case AssetImagen:
		for name, t := range imageTypes {
			if isA(mt, name) {
				return t, nil
			}
		}
		return assetType{}, invalidField("file", fmt.Sprintf("tipo de imagen no permitido (%s)", mt.String()))
	case AssetObjeto3D:
		switch {
		case isA(mt, "model/gltf-binary"):
			return assetType{"model/gltf-binary", ".glb", "glb"}, nil
		case ext == ".gltf" && isA(mt, "application/json"):
			return assetType{"model/gltf+json", ".gltf", "gltf"}, nil
		case ext == ".obj" && isA(mt, "text/plain"):
			return assetType{"model/obj", ".obj", "obj"}, nil
		}
		return assetType{}, invalidField("file", fmt.Sprintf("modelo 3D no permitido (%s)", mt.String()))
	}
	return assetType{}, invalidField("kind", "debe ser imagen u objeto3D")
}

func isA(mt *mimetype.MIME, want string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// AttachAsset uploads an image or 3D model and points the product at it. The
// object it replaces is deleted afterwards.
func (s *ProductService) AttachAsset(ctx context.Context, id string, kind AssetKind, upload AssetUpload) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.AttachAsset")
	defer span.End()
	logger.Info(ctx, "Service", slog.String("kind", string(kind)), slog.Int64("size", upload.Size))

	if s.assets == nil {
		return nil, ErrAssetStoreDisabled
	}
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size == 0 {
		return nil, invalidField("file", "es obligatorio")
	}
	if upload.Size > s.maxUploadSize {
		return nil, invalidField("file", fmt.Sprintf("supera el máximo de %d bytes", s.maxUploadSize))
	}
	at, err := detectAsset(kind, upload.Filename, upload.Content)
	if err != nil {
		return nil, err
	}

	current, err := s.find(ctx, objID)
	if err != nil {
		return nil, err
	}

	slug := current.Slug
	if slug == "" {
		slug = utils.Slug(current.Nombre)
	}
	objectName := storage.ObjectName(slug, string(kind), at.ext, s.now())
	url, err := s.assets.Upload(ctx, objectName, at.contentType, upload.Content)
	if err != nil {
		return nil, err
	}

	next := *current
	var stale string
	switch kind {
	case AssetImagen:
		stale = current.ImagenObject
		next.Imagen = url
		next.ImagenObject = objectName
	case AssetObjeto3D:
		if current.Objeto3D != nil {
			stale = current.Objeto3D.ObjectName
		}
		next.Objeto3D = &model.Objeto3D{URL: url, Formato: at.formato, ObjectName: objectName}
	}

	updated, err := s.repo.Update(ctx, objID, &next)
	if err != nil {
		s.deleteAssets(ctx, objectName)
		return nil, writeError(err, id, next.Nombre)
	}

	s.deleteAssets(ctx, stale)
	s.afterWrite(ctx, events.ActionUpdated, updated)
	return updated, nil
}
