package cleanblog

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
)

var errNoUpload = errors.New("no image uploaded")

// processImage decodes an image from src, shrinks it to maxImageWidth when
// wider, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := max(h*maxImageWidth/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// uniqueFilename appends a counter to base until no file of that name exists
// in dir.
func uniqueFilename(dir, base string) string {
	candidate := base + ".jpg"
	for counter := 2; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}

// saveUpload stores the header image submitted in the form, if any, and
// returns its file name inside UploadDir. It returns errNoUpload when the form
// carries no file.
func (a *App) saveUpload(c echo.Context) (string, error) {
	file, err := c.FormFile(FieldImage)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", errNoUpload
	}
	if err != nil {
		return "", err
	}
	return a.storeImage(file)
}

func (a *App) storeImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxUploadSize {
		return "", fmt.Errorf("image too large (max %d MB)", maxUploadSize>>20)
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := processImage(src)
	if err != nil {
		return "", err
	}

	dir := a.Config.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uniqueFilename(dir, slugifyFilename(file.Filename))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

func (a *App) uploadURL(name string) string {
	return AbsURL(a.Config.URL, "static", "uploads", name)
}

// removeUpload deletes a stored header image that no post references.
func (a *App) removeUpload(c echo.Context, name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(a.Config.UploadDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.Logger().Warnf("remove upload %s: %v", name, err)
	}
}
