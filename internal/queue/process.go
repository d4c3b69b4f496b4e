package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/storage"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/util"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/annotate"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/convert"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
)

// ProcessConvert handles one convert job: download the raw structure snapshot
// from S3, parse it, run the converter and persist the resulting document
// graph with its annotation task. Returned errors send the message into the
// retry/DLQ cycle.
func ProcessConvert(
	ctx context.Context,
	client *s3.Client,
	manager *annotate.Manager,
	msgBody string,
) error {
	var data QueueConvertJobMsg
	if err := json.Unmarshal([]byte(msgBody), &data); err != nil {
		return fmt.Errorf("failed to parse convert message: %w", err)
	}
	if data.SnapshotKey == "" {
		return fmt.Errorf("convert message without snapshot key")
	}
	if client == nil {
		return fmt.Errorf("snapshot storage not configured")
	}

	logger.Info("[Queue][Convert] Processing snapshot", "key", data.SnapshotKey, "source", data.SourceFile)

	raw, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) ([]byte, error) {
		return storage.GetSnapshot(ctx, client, data.SnapshotKey)
	})
	if err != nil {
		return err
	}

	parsed, err := convert.ParseRawDocument(raw)
	if err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", data.SnapshotKey, err)
	}

	doc, task, err := manager.Import(ctx, parsed, data.SourceFile)
	if err != nil {
		return fmt.Errorf("failed to import snapshot %s: %w", data.SnapshotKey, err)
	}

	// Batch snapshots are transport artifacts, not provenance; drop them once
	// the document is persisted. A leftover object is harmless.
	if err := storage.DeleteSnapshot(ctx, client, data.SnapshotKey); err != nil {
		logger.Warn("[Queue][Convert] Failed to delete snapshot", "key", data.SnapshotKey, "err", err)
	}

	logger.Info(
		"[Queue][Convert] Document imported",
		"key", data.SnapshotKey,
		"docId", doc.DocID,
		"taskId", task.TaskID,
		"nodes", len(doc.Nodes),
		"edges", len(doc.Edges),
	)
	return nil
}
