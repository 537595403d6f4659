package controller

import (
	"io"

	"ai-realtime-relay/internal/dto"
	"ai-realtime-relay/internal/pkg/serverutils"
	"ai-realtime-relay/internal/service"
	"ai-realtime-relay/pkg/events"
	"ai-realtime-relay/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type fileController struct {
	engine    *rag.Engine
	publisher service.IPublisherService
}

func NewFileController(engine *rag.Engine, publisher service.IPublisherService) IFileController {
	return &fileController{
		engine:    engine,
		publisher: publisher,
	}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	r.Post("/upload", c.Upload)
	r.Get("/files", c.List)
	r.Delete("/files/:filename", c.Delete)
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	units, err := c.engine.Ingest(ctx.Context(), fileHeader.Filename, mimeType, data)
	if err != nil {
		return err
	}

	if c.publisher != nil {
		_ = c.publisher.Publish(ctx.Context(), events.TypeDocumentIngested, map[string]interface{}{
			"name":  fileHeader.Filename,
			"bytes": len(data),
			"units": units,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("File uploaded and processed successfully", dto.UploadFileResponse{
		Name:  fileHeader.Filename,
		Size:  len(data),
		Type:  mimeType,
		Units: units,
	}))
}

func (c *fileController) List(ctx *fiber.Ctx) error {
	infos := c.engine.List()
	res := make([]dto.FileInfoResponse, len(infos))
	for i, info := range infos {
		res[i] = dto.FileInfoResponse{
			Name:  info.Name,
			Units: info.Units,
			Bytes: info.Bytes,
		}
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list files", res))
}

func (c *fileController) Delete(ctx *fiber.Ctx) error {
	filename := ctx.Params("filename")
	c.engine.Remove(filename)

	if c.publisher != nil {
		_ = c.publisher.Publish(ctx.Context(), events.TypeDocumentRemoved, map[string]interface{}{
			"name": filename,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("File deleted successfully", dto.DeleteFileResponse{
		Name: filename,
	}))
}
