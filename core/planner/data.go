package planner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ExportFilename is the name of a backup file made on date.
func ExportFilename(date time.Time) string {
	return "cuaderno-profesor-backup-" + FormatDate(date) + ".json"
}

// Export serializes the whole state as an indented JSON backup.
func (svc *Service) Export() (data []byte, filename string, err error) {
	data, err = json.MarshalIndent(svc.state.Snapshot(), "", "  ")
	if err != nil {
		return nil, "", errors.Wrap(err, "encoding snapshot")
	}
	return data, ExportFilename(Today()), nil
}

// Import replaces the whole state with a backup file's contents.
func (svc *Service) Import(ctx context.Context, data []byte) (Snapshot, error) {
	snap, err := ParseSnapshot(data)
	if err != nil {
		return Snapshot{}, err
	}
	return svc.ImportSnapshot(ctx, snap)
}

func (svc *Service) ImportSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	svc.state.Replace(snap)
	snap = svc.state.Snapshot()
	svc.persist(ctx, "Import", func(ctx context.Context) error {
		return push(ctx, svc.repo, snap)
	})
	return snap, nil
}

// DeleteAll wipes the state, the remote and the local cache.
func (svc *Service) DeleteAll(ctx context.Context) error {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	svc.state.Replace(Snapshot{})
	if svc.repo != nil {
		svc.metrics.RemoteCall("DeleteAll")
		if err := svc.repo.DeleteAll(ctx); err != nil {
			svc.metrics.RemoteFailure("DeleteAll")
			svc.metrics.Fallback("DeleteAll")
			svc.setOnline(false)
			svc.logger.Error("DeleteAll: remote delete failed", errors.Wrap(err, "DeleteAll"))
		}
	}
	if err := svc.cache.Clear(ctx); err != nil {
		return errors.Wrap(err, "clearing local cache")
	}
	return nil
}
