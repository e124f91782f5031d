package controller

import (
	"io"
	"mime/multipart"

	"filechat-be/internal/dto"
	"filechat-be/internal/pkg/serverutils"
	"filechat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	r.Post("/ingest", c.Ingest)
}

// Ingest accepts either multipart "files" uploads or a "folderUrl" form
// value, never both. Validation failures are data, not HTTP failures: the
// client renders the error string as-is.
func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	var uploads []service.UploadedFile

	form, err := ctx.MultipartForm()
	if err == nil && form != nil {
		uploads = toUploadedFiles(form.File["files"])
	}
	folderRef := ctx.FormValue("folderUrl")

	input, err := service.ParseIngestInput(uploads, folderRef)
	if err != nil {
		return ctx.JSON(serverutils.ErrorResponse(err.Error()))
	}

	sessionID, err := c.ingestService.Ingest(ctx.UserContext(), input)
	if err != nil {
		if service.IsUserError(err) {
			return ctx.JSON(serverutils.ErrorResponse(err.Error()))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ingest documents", dto.IngestResponse{
		SessionId: sessionID,
	}))
}

func toUploadedFiles(headers []*multipart.FileHeader) []service.UploadedFile {
	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, service.UploadedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}
