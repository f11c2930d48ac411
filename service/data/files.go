package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
)

type filesDBService struct {
	CfgSvc config.IService
	mu     sync.Mutex
}

// NewFilesDB keeps errors and stats as JSON arrays, one file per entity, in the output folder.
func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr.Processor = "N/A"
		customErr.Inner = e
		customErr.Message = e.Error()
		customErr.StackTrace = "N/A"
	default:
		return fmt.Errorf("unsupported error value %T", err)
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	// Create an error object to persist
	errorData := struct {
		Timestamp  int64                  `json:"timestamp"`
		Processor  string                 `json:"processor"`
		Inner      string                 `json:"innerError"`
		Message    string                 `json:"message"`
		StackTrace string                 `json:"stackTrace"`
		Misc       map[string]interface{} `json:"misc"`
	}{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}
	return newEntity(&svc.mu, errorData, "errors", svc.CfgSvc)
}

func (svc *filesDBService) NewAgentStats(stats model.AgentStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(&svc.mu, stats, "agent-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(&svc.mu, stats, "framer-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewMatterStats(stats model.MatterStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(&svc.mu, stats, "matter-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewSinkStats(stats model.SinkStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(&svc.mu, stats, "sink-stats", svc.CfgSvc)
}

func (svc *filesDBService) RetrieveMatterStats() ([]model.MatterStats, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return retrieveEntites[model.MatterStats]("matter-stats", svc.CfgSvc)
}

func entityFile(filename string, cfgsvc config.IService) string {
	return filepath.Join(cfgsvc.GetOutputFolder(), fmt.Sprintf("%s.json", filename))
}

func newEntity[T any](mu *sync.Mutex, entity T, filename string, cfgsvc config.IService) error {
	mu.Lock()
	defer mu.Unlock()

	entities, err := retrieveEntites[T](filename, cfgsvc)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgsvc.GetOutputFolder(), 0755); err != nil {
		return err
	}

	// Write the JSON data to the file (with truncation)
	return os.WriteFile(entityFile(filename, cfgsvc), data, 0644)
}

func retrieveEntites[T any](filename string, cfgsvc config.IService) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityFile(filename, cfgsvc))
	if errors.Is(err, os.ErrNotExist) {
		// WARNING: File not found, return empty slice
		return entities, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, err
	}

	return entities, nil
}
