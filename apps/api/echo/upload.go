package echoapi

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/student"
	"github.com/trezcool/libdesk/services/objectstore"
)

const (
	imageField   = "image"
	maxImageSize = 2 << 20 // 2MB
)

var (
	imageExtensions = map[string]string{ // {content type: default extension}
		"image/jpeg": "jpg",
		"image/jpg":  "jpg",
		"image/png":  "png",
	}

	errNoImage       = core.NewValidationError(errors.New("No image file received"))
	errImageTooLarge = core.NewValidationError(errors.New("Image must be 2MB or smaller"))
	errImageType     = core.NewValidationError(errors.New("Only JPEG, PNG images are allowed"))
)

type uploadApi struct {
	store     objectstore.Store
	libraries *library.Service
	students  *student.Service
}

func registerUploadAPI(
	g *echo.Group,
	tenantAuth echo.MiddlewareFunc,
	gate echo.MiddlewareFunc,
	store objectstore.Store,
	libraries *library.Service,
	students *student.Service,
) {
	api := uploadApi{
		store:     store,
		libraries: libraries,
		students:  students,
	}

	g.POST("/upload/profile-image", api.profileImage, tenantAuth, gate)
}

func imageExt(filename, contentType string) string {
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext != "" {
		return ext
	}
	return imageExtensions[contentType]
}

// Handlers

// profileImage stores the picture of a student of the library when `studentId` is given,
// the picture of the library otherwise.
func (api *uploadApi) profileImage(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	fh, err := ctx.FormFile(imageField)
	if err != nil {
		return errNoImage
	}
	if fh.Size > maxImageSize {
		return errImageTooLarge
	}
	contentType := strings.ToLower(fh.Header.Get(echo.HeaderContentType))
	if _, ok := imageExtensions[contentType]; !ok {
		return errImageType
	}

	studentID := core.CleanString(ctx.FormValue("studentId"))
	ownerID := lib.ID
	if studentID != "" {
		if _, err = api.students.Get(reqCtx, lib.ID, studentID); err != nil {
			return err
		}
		ownerID = studentID
	}

	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded image")
	}
	defer file.Close()

	key := "profile/" + ownerID + "." + imageExt(fh.Filename, contentType)
	url, err := api.store.Put(reqCtx, key, contentType, file, fh.Size)
	if err != nil {
		return errors.Wrap(err, "storing profile image")
	}

	if studentID != "" {
		s, err := api.students.SetProfileImage(reqCtx, lib.ID, studentID, url)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, echo.Map{"imageUrl": url, "student": s})
	}
	updated, err := api.libraries.SetProfileImage(reqCtx, lib.ID, url)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"imageUrl": url, "library": updated})
}
