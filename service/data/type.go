package data

import "github.com/khaledhikmat/vs-matte/model"

type IService interface {
	NewError(err interface{}) error
	NewAgentStats(stats model.AgentStats) error
	NewFramerStats(stats model.FramerStats) error
	NewMatterStats(stats model.MatterStats) error
	NewSinkStats(stats model.SinkStats) error

	RetrieveMatterStats() ([]model.MatterStats, error)
}
