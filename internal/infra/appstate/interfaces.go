package appstate

import "github.com/skillcoder/replica-autoscaler/internal/infra/pinger"

// pingerServer is an internal interface for the pinger service
type pingerServer interface {
	Register(pinger pinger.Pinger) error
	GetAllStats() map[string]*pinger.Statistics
}
