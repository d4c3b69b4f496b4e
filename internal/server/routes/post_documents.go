package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/queue"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server/middleware"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/storage"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/util"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/convert"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// ImportDocumentHandler imports one inline raw structure document
// synchronously. The request body is the exporter's JSON; the source filename
// comes from the source_file query parameter.
func ImportDocumentHandler(c echo.Context) error {
	type importResponse struct {
		Message string                  `json:"message"`
		DocID   string                  `json:"doc_id,omitempty"`
		DocName string                  `json:"doc_name,omitempty"`
		Nodes   int                     `json:"nodes,omitempty"`
		Edges   int                     `json:"edges,omitempty"`
		Status  schema.AnnotationStatus `json:"status,omitempty"`
		TaskID  string                  `json:"task_id,omitempty"`
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, importResponse{
			Message: "Invalid request body",
		})
	}

	raw, err := convert.ParseRawDocument(body)
	if err != nil {
		logger.Warn("Failed to parse structure document", "err", err)
		return c.JSON(http.StatusBadRequest, importResponse{
			Message: "Unparseable structure document",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, task, err := app.Manager.Import(ctx, raw, c.QueryParam("source_file"))
	if err != nil {
		if errors.Is(err, convert.ErrEmptyDocument) {
			return c.JSON(http.StatusUnprocessableEntity, importResponse{
				Message: "Document yielded no convertible elements",
			})
		}
		logger.Error("Failed to import document", "err", err)
		return c.JSON(http.StatusInternalServerError, importResponse{
			Message: "Internal server error",
		})
	}

	// Snapshot the raw input for provenance when a bucket is configured.
	if app.S3 != nil {
		if _, err := storage.PutSnapshot(ctx, app.S3, doc.DocID, body); err != nil {
			logger.Error("Failed to store snapshot", "docId", doc.DocID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, importResponse{
		Message: "Document imported successfully",
		DocID:   doc.DocID,
		DocName: doc.DocName,
		Nodes:   len(doc.Nodes),
		Edges:   len(doc.Edges),
		Status:  doc.AnnotationStatus,
		TaskID:  task.TaskID,
	})
}

// ImportBatchHandler uploads multiple structure documents to the snapshot
// bucket and queues one convert job per file; the worker performs the
// imports.
func ImportBatchHandler(c echo.Context) error {
	type queuedFile struct {
		FileName    string `json:"file_name"`
		SnapshotKey string `json:"snapshot_key"`
	}

	type batchResponse struct {
		Message string       `json:"message"`
		Queued  []queuedFile `json:"queued,omitempty"`
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, batchResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, batchResponse{
			Message: "No files provided",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusServiceUnavailable, batchResponse{
			Message: "Snapshot storage not configured",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, batchResponse{
			Message: "Unauthorized",
		})
	}

	ctx := c.Request().Context()
	queued := make([]queuedFile, len(uploads))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, file := range uploads {
		eg.Go(func() error {
			src, err := file.Open()
			if err != nil {
				return err
			}
			defer src.Close()

			data, err := io.ReadAll(src)
			if err != nil {
				return err
			}

			id, err := gonanoid.New()
			if err != nil {
				return err
			}
			key, err := storage.PutSnapshot(ectx, app.S3, id, data)
			if err != nil {
				return err
			}
			queued[i] = queuedFile{FileName: file.Filename, SnapshotKey: key}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Error("Failed to upload batch", "err", err)
		return c.JSON(http.StatusInternalServerError, batchResponse{
			Message: "Internal server error",
		})
	}

	for i, qf := range queued {
		msg := queue.QueueConvertJobMsg{
			Message:     "Batch import",
			SnapshotKey: qf.SnapshotKey,
			SourceFile:  uploads[i].Filename,
			Annotator:   user.Name,
		}
		if err := queue.PublishFIFO(app.Queue, queue.ConvertQueue, []byte(util.ConvertStructToJson(msg))); err != nil {
			logger.Error("Failed to publish convert job", "key", qf.SnapshotKey, "err", err)
			return c.JSON(http.StatusInternalServerError, batchResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusOK, batchResponse{
		Message: "Batch queued successfully",
		Queued:  queued,
	})
}
