package core

import (
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusTransitionRule())
	engine.Register(ChainIntegrityRule())
	engine.Register(SamplingStagesRule())
	return engine
}
