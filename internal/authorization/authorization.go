package authorization

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectUsers = "users"

	ActionRead  = "read"
	ActionWrite = "write"
)

// Authorizer answers role/object/action questions. Policies persist through
// the gorm adapter; when the store is unreachable a memory-only enforcer with
// the baseline policy set still answers.
type Authorizer struct {
	enforcer *casbin.Enforcer
	log      *zap.Logger
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func New(p Params) (*Authorizer, error) {
	log := p.Log.Named("authorization")

	model, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.Enforcer
	adapter, err := gormadapter.NewAdapterByDBUseTableName(p.DB, "", "authorization_rules")
	if err != nil {
		log.Warn("policy store unavailable, using memory-only policies", zap.Error(err))
		enforcer, err = casbin.NewEnforcer(model)
	} else {
		enforcer, err = casbin.NewEnforcer(model, adapter)
	}
	if err != nil {
		return nil, err
	}

	seedBaseline(enforcer, log)
	return &Authorizer{enforcer: enforcer, log: log}, nil
}

// seedBaseline makes sure the manager grants exist even on a fresh store.
func seedBaseline(enforcer *casbin.Enforcer, log *zap.Logger) {
	baseline := [][]string{
		{"manager", ObjectUsers, ActionRead},
		{"manager", ObjectUsers, ActionWrite},
	}
	for _, rule := range baseline {
		if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			log.Warn("baseline policy seed failed", zap.Strings("rule", rule), zap.Error(err))
		}
	}
}

// Can reports whether the role may perform the action on the object. Any
// enforcer error denies.
func (a *Authorizer) Can(role, object, action string) bool {
	ok, err := a.enforcer.Enforce(role, object, action)
	if err != nil {
		a.log.Warn("enforce failed",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
			zap.Error(err),
		)
		return false
	}
	return ok
}

var Module = fx.Module("authorization",
	fx.Provide(New),
)
