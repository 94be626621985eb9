package store

import (
	"errors"
	"os"

	json "github.com/goccy/go-json"

	"habitd/internal/models"
	"habitd/internal/providers"
	"habitd/internal/services"
)

// FileManager persists the local replica as one compressed JSON snapshot.
// Writes go through a temp file with fsync and rename so a crash mid-save
// never corrupts the previous snapshot. Write failures propagate — losing a
// user edit silently is not acceptable.
type FileManager struct {
	service    services.HabitServiceInterface
	compressor CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor CompressorInterface, service services.HabitServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	replica := f.service.GetReplica()

	jsonData, err := json.Marshal(replica)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		// Early snapshots were written uncompressed; fall through and try
		// to decode the raw bytes before giving up.
		decompressedData = data
	}

	// Current format: versioned envelope.
	var replica models.Replica
	if err := json.Unmarshal(decompressedData, &replica); err == nil && replica.Habits != nil {
		if replica.History == nil {
			replica.History = make(map[string]*models.WeeklyScoreSnapshot)
		}
		f.service.PutReplica(&replica)
		return nil
	}

	// Legacy format: bare habit table, no envelope, no history.
	f.logger.Warnf(providers.TypeApp, "Inconsistent replica file found, try to migrate from old data format")
	var habits map[string]*models.HabitRecord
	if err := json.Unmarshal(decompressedData, &habits); err != nil || habits == nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		if err == nil {
			err = errors.New("unrecognized replica file format")
		}
		return err
	}
	f.logger.Warnf(providers.TypeApp, "Migration from legacy format successful")
	f.service.PutReplica(&models.Replica{
		Version: models.ReplicaVersion,
		Habits:  habits,
		History: make(map[string]*models.WeeklyScoreSnapshot),
	})
	return nil
}
